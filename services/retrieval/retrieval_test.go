package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopRetriever(t *testing.T) {
	var r Retriever = NopRetriever{}
	assert.False(t, r.Enabled())

	chunks, err := r.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestHTTPEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"emb-1","vector":[0.1,0.2,0.3],"dim":3}`))
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, 2*time.Second)
	vec, err := embedder.Embed(context.Background(), "how do I reset my pin")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestHTTPEmbedder_BaseURLWithEmbedSuffix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/batch_embed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vectors":[[0.1],[0.2]],"dim":1}`))
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL+"/embed", 2*time.Second)
	vecs, err := embedder.BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestHTTPEmbedder_BatchEmbed_MismatchedCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vectors":[[0.1]],"dim":1}`))
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, 2*time.Second)
	_, err := embedder.BatchEmbed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestHTTPEmbedder_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, 2*time.Second)
	_, err := embedder.Embed(context.Background(), "q")
	require.Error(t, err)
}

func TestGetKnowledgeChunkSchema(t *testing.T) {
	class := GetKnowledgeChunkSchema()
	assert.Equal(t, KnowledgeChunkClass, class.Class)
	assert.Equal(t, "none", class.Vectorizer)
	require.Len(t, class.Properties, 2)
	assert.Equal(t, "chunk", class.Properties[0].Name)
	assert.Equal(t, "source", class.Properties[1].Name)
}

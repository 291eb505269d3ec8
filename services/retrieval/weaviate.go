package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("bankassist.retrieval")

// KnowledgeChunkClass is the Weaviate class holding ingested KB chunks.
const KnowledgeChunkClass = "KnowledgeChunk"

// WeaviateRetriever implements Retriever against a Weaviate instance with
// client-side vectors from the embedding sidecar.
//
// Safe for concurrent use; the underlying Weaviate client handles connection
// pooling.
type WeaviateRetriever struct {
	client   *weaviate.Client
	embedder EmbeddingProvider
}

var _ Retriever = (*WeaviateRetriever)(nil)

// NewWeaviateRetriever creates a retriever over the KnowledgeChunk class.
func NewWeaviateRetriever(client *weaviate.Client, embedder EmbeddingProvider) *WeaviateRetriever {
	return &WeaviateRetriever{client: client, embedder: embedder}
}

func (r *WeaviateRetriever) Enabled() bool {
	return r.client != nil && r.embedder != nil
}

// Retrieve embeds the query and runs a nearVector search over KnowledgeChunk.
// Certainty is requested instead of distance so scores are always in [0,1].
func (r *WeaviateRetriever) Retrieve(ctx context.Context, query string, topK int) ([]datatypes.RetrievedChunk, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Retrieve")
	defer span.End()

	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed the retrieval query: %w", err)
	}

	nearVector := r.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "chunk"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(KnowledgeChunkClass).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.KnowledgeChunkQueryResponse](result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse retrieval results: %w", err)
	}

	chunks := make([]datatypes.RetrievedChunk, 0, len(parsed.Get.KnowledgeChunk))
	for i, hit := range parsed.Get.KnowledgeChunk {
		score := 0.0
		if hit.Additional.Certainty != nil {
			score = *hit.Additional.Certainty
		}
		chunks = append(chunks, datatypes.RetrievedChunk{
			Doc:    hit.Chunk,
			Source: hit.Source,
			Score:  score,
			Rank:   i + 1,
		})
	}
	slog.Debug("Retrieved knowledge chunks", "query_len", len(query), "count", len(chunks))
	return chunks, nil
}

// GetKnowledgeChunkSchema returns the class definition for ingested chunks.
// Vectorizer is "none": vectors are computed client-side by the sidecar.
func GetKnowledgeChunkSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       KnowledgeChunkClass,
		Description: "A chunk of a banking knowledge-base document.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "chunk",
				DataType:     []string{"text"},
				Description:  "The chunk text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "The source document this chunk came from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureSchema creates the KnowledgeChunk class if it does not exist yet.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	class := GetKnowledgeChunkSchema()

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}

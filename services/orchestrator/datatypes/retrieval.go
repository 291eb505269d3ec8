// Package datatypes provides data structures for the orchestrator service.
//
// This file contains the types shared between the retrieval service, the
// knowledge-base ingestion path, and the prompt composer.
package datatypes

// RetrievedChunk is one knowledge-base passage returned by the retriever,
// ranked best-first (Rank starts at 1). Score is a certainty in [0,1].
type RetrievedChunk struct {
	Doc    string  `json:"doc"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// =============================================================================
// Embedding Sidecar Wire Types
// =============================================================================

// EmbeddingRequest is the body of the sidecar's /embed endpoint.
type EmbeddingRequest struct {
	Text string `json:"text"`
}

// EmbeddingResponse is the sidecar's /embed payload.
type EmbeddingResponse struct {
	Id        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Dim       int       `json:"dim"`
}

// BatchEmbeddingRequest is the body of the sidecar's /batch_embed endpoint.
type BatchEmbeddingRequest struct {
	Texts []string `json:"texts"`
}

// BatchEmbeddingResponse is the sidecar's /batch_embed payload. Vectors are
// ordered to match the request texts.
type BatchEmbeddingResponse struct {
	Id        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Vectors   [][]float32 `json:"vectors"`
	Model     string      `json:"model"`
	Dim       int         `json:"dim"`
}

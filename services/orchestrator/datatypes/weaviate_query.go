package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type. It encapsulates the marshal/unmarshal round trip needed to turn
// Weaviate's dynamic response (map[string]models.JSONObject) into a typed
// struct; T must carry json tags matching the response shape.
//
// Type mismatches yield zero values rather than errors, so response types
// should use pointers for fields that may be absent.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Knowledge Base Response Types
// =============================================================================

// KnowledgeChunkQueryResponse represents the response from a nearVector query
// against the KnowledgeChunk class.
type KnowledgeChunkQueryResponse struct {
	Get struct {
		KnowledgeChunk []KnowledgeChunkResult `json:"KnowledgeChunk"`
	} `json:"Get"`
}

// KnowledgeChunkResult is a single retrieved knowledge-base chunk.
// Certainty is requested instead of distance so scores are always in [0,1].
type KnowledgeChunkResult struct {
	Chunk      string `json:"chunk"`
	Source     string `json:"source"`
	Additional struct {
		Certainty *float64 `json:"certainty"`
	} `json:"_additional"`
}

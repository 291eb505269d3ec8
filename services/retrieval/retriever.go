// Package retrieval provides semantic search over the banking knowledge base.
//
// Retrieval is strictly best-effort: a retriever failure degrades the answer
// (no citations) but never fails the request. The orchestrator decides
// per-intent whether to call Retrieve at all; this package only answers the
// question it is asked.
package retrieval

import (
	"context"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

// DefaultTopK is the number of chunks fetched when the caller passes topK <= 0.
const DefaultTopK = 3

// Retriever performs semantic search over ingested knowledge-base chunks.
type Retriever interface {
	// Retrieve returns up to topK chunks relevant to the query, best first.
	// An error means the knowledge base was unreachable; callers proceed
	// without grounding rather than failing the request.
	Retrieve(ctx context.Context, query string, topK int) ([]datatypes.RetrievedChunk, error)

	// Enabled reports whether this retriever can actually serve results.
	// The orchestrator skips retrieval (and reports rag_used=false) when
	// false, instead of burning a round trip on a no-op.
	Enabled() bool
}

// NopRetriever is the retriever used when no vector store is configured.
type NopRetriever struct{}

var _ Retriever = (*NopRetriever)(nil)

func (NopRetriever) Retrieve(context.Context, string, int) ([]datatypes.RetrievedChunk, error) {
	return nil, nil
}

func (NopRetriever) Enabled() bool { return false }

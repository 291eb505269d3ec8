package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/retrieval"
)

var (
	chunkSize    = 1000
	chunkOverlap = chunkSize / 10

	defaultSeparators = []string{"\n\n", "\n", " ", ""}

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

// IngestDocumentRequest is the body of POST /v1/documents. Content is the
// raw document text; Source is its identifier (typically a file path) and
// drives the chunking strategy and the citation strings.
type IngestDocumentRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// CreateDocument ingests one knowledge-base document: split, embed, store.
func CreateDocument(client *weaviate.Client, embedder retrieval.EmbeddingProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestDocumentRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Content == "" || req.Source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content and source are required"})
			return
		}

		chunksCreated, err := RunIngestion(c.Request.Context(), client, embedder, req)
		if err != nil {
			slog.Error("Ingestion failed", "source", req.Source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Successfully processed document via API",
			"source", req.Source, "chunks_processed", chunksCreated)
		c.JSON(http.StatusCreated, gin.H{
			"status":           "success",
			"source":           req.Source,
			"chunks_processed": chunksCreated,
		})
	}
}

// ListDocuments returns the unique source names of all ingested documents.
func ListDocuments(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		agg, err := client.GraphQL().Aggregate().
			WithClassName(retrieval.KnowledgeChunkClass).
			WithGroupBy("source").
			Do(c.Request.Context())
		if err != nil {
			slog.Error("Failed to aggregate documents from Weaviate", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query documents"})
			return
		}

		docList := make([]string, 0)
		if agg.Data["Aggregate"] != nil {
			aggMap, ok := agg.Data["Aggregate"].(map[string]interface{})
			if ok && aggMap[retrieval.KnowledgeChunkClass] != nil {
				groups, ok := aggMap[retrieval.KnowledgeChunkClass].([]interface{})
				if ok {
					for _, groupItem := range groups {
						groupMap, ok := groupItem.(map[string]interface{})
						if !ok || groupMap["groupedBy"] == nil {
							continue
						}
						groupedByMap, ok := groupMap["groupedBy"].(map[string]interface{})
						if !ok {
							continue
						}
						if sourceName, ok := groupedByMap["value"].(string); ok {
							docList = append(docList, sourceName)
						}
					}
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"documents": docList})
	}
}

// RunIngestion splits a document, embeds the chunks in one batch, and
// imports them into Weaviate in one request. Chunk IDs are content hashes,
// so re-ingesting the same document is idempotent.
func RunIngestion(ctx context.Context, client *weaviate.Client,
	embedder retrieval.EmbeddingProvider, req IngestDocumentRequest) (int, error) {

	splitter := getSplitterForSource(req.Source)
	chunks, err := splitter.SplitText(req.Content)
	if err != nil {
		slog.Error("Failed to split text", "source", req.Source, "error", err)
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "source", req.Source)
		return 0, nil
	}
	slog.Info("Split document into chunks", "source", req.Source, "chunk_count", len(chunks))

	vectors, err := embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		slog.Error("Failed to get batch embeddings", "source", req.Source, "error", err)
		return 0, err
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		hash := sha256.Sum256([]byte(chunk))
		docUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class:  retrieval.KnowledgeChunkClass,
			ID:     strfmt.UUID(docUUID.String()),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"chunk":  chunk,
				"source": req.Source,
			},
		}
	}

	resp, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		slog.Error("Failed to perform batch import to Weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	chunksCreated := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			chunksCreated++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "source", req.Source, "error", errItem.Message)
			}
		}
	}

	slog.Info("Successfully processed document", "source", req.Source,
		"chunks_processed", chunksCreated)
	return chunksCreated, nil
}

// getSplitterForSource picks a chunking strategy from the source name. The
// knowledge base is mostly markdown runbooks; anything else gets the plain
// recursive splitter.
func getSplitterForSource(source string) textsplitter.TextSplitter {
	switch filepath.Ext(source) {
	case ".md":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		)
	default:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		)
	}
}

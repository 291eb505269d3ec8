// Package llm abstracts the text-generation backend behind a single chat
// interface. The orchestrator never sees a concrete provider: it sends an
// ordered, already-sanitized message list and gets raw text back, which the
// policy guardrail then post-processes.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Chat sends the composed prompt as an ordered message list. Implementations
// must not reorder, drop, or persist messages, and must respect context
// cancellation.
type LLMClient interface {
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}

// NewFromEnv selects and constructs the backend named by LLM_PROVIDER
// (openai or ollama; defaults to ollama). Construction failures are fatal at
// startup so a misconfigured provider never serves traffic.
func NewFromEnv() (LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	switch provider {
	case "openai":
		return NewOpenAIClient()
	case "ollama", "":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (expected openai or ollama)", provider)
	}
}

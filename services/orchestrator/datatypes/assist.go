// Package datatypes provides data structures for the orchestrator service.
//
// This file contains the request and response types for the assist endpoint.
// For retrieval types, see retrieval.go.
package datatypes

import (
	"encoding/hex"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Guards against memory exhaustion with oversized payloads.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryTurns is the maximum number of history turns in a request.
	// The prompt composer only ever uses the last 8; the rest is tolerated
	// but bounded.
	MaxHistoryTurns = 100
)

// Response status values carried in the payload. Generation failures keep a
// 200 transport status; only the payload status flips to error.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// assistValidate is the validator instance for assist datatypes.
// Initialized in init() with custom validators.
var assistValidate *validator.Validate

func init() {
	assistValidate = validator.New()
	_ = assistValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces MaxMessageContentBytes on a string field. Checks
// byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Messages
// =============================================================================

// Message is one turn of a model conversation. An ordered slice of messages
// forms a prompt: the order is semantically meaningful (system instruction
// first, then context blocks, then history, then the live query).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content" validate:"maxbytes"`
}

// Roles used in prompts. The composer emits exactly one system message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// Assist Request / Response
// =============================================================================

// AssistRequest is the body of POST /v1/assist.
//
// History is optional and treated as untrusted: the sanitizer drops PII-laden
// and (for feature intent) lock-claiming turns before anything reaches the
// prompt. Nothing in this request is persisted by the pipeline.
type AssistRequest struct {
	SessionID  string    `json:"session_id" validate:"required"`
	CustomerID string    `json:"customer_id" validate:"required"`
	Query      string    `json:"query" validate:"required,maxbytes"`
	History    []Message `json:"history" validate:"omitempty,max=100,dive"`
}

// Validate validates the AssistRequest fields after JSON binding.
func (r *AssistRequest) Validate() error {
	return assistValidate.Struct(r)
}

// AssistResponse is the uniform payload returned for every assist request,
// including PII deflections and generation failures.
//
// Intent carries the special value "pii_deflected" when the PII gate
// short-circuited the pipeline.
type AssistResponse struct {
	RequestID string   `json:"request_id"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Intent    string   `json:"intent"`
	RagUsed   bool     `json:"rag_used"`
	Sources   []string `json:"sources"`
}

// NewRequestID returns a fresh request identifier of the form req-<12 hex>.
func NewRequestID() string {
	id := uuid.New()
	return "req-" + hex.EncodeToString(id[:6])
}

// =============================================================================
// Auth
// =============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate validates the LoginRequest fields after JSON binding.
func (r *LoginRequest) Validate() error {
	return assistValidate.Struct(r)
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

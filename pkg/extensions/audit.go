package extensions

import (
	"context"
	"log/slog"
	"time"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/logging"
)

// AuditEvent represents a security-relevant event for compliance logging.
//
// Events are categorized by type for filtering and alerting:
//   - Authentication: "auth.login", "auth.failed"
//   - Policy: "policy.pii_deflected", "policy.guardrail_rewrite"
//   - Assist: "assist.request", "assist.error"
//
// Metadata must never contain raw user text or PII: pattern identifiers and
// counts only.
type AuditEvent struct {
	// EventType categorizes the event. Format: "category.action".
	EventType string

	// Timestamp is when the event occurred (always UTC). If zero,
	// implementations set it to time.Now().UTC().
	Timestamp time.Time

	// UserID identifies who performed the action. Use "system" for
	// automated actions, "anonymous" if unknown.
	UserID string

	// RequestID correlates the event with one assist request.
	RequestID string

	// Outcome indicates the result. Values: "success", "failure",
	// "blocked", "error".
	Outcome string

	// Metadata holds additional non-PII event data (pattern ids, intent,
	// durations).
	Metadata map[string]any
}

// AuditLogger records security-relevant events.
//
// Log must not block request handling on slow sinks; implementations that
// ship events to external systems should buffer internally.
type AuditLogger interface {
	Log(ctx context.Context, event AuditEvent)
}

// NopAuditLogger discards all events.
type NopAuditLogger struct{}

var _ AuditLogger = (*NopAuditLogger)(nil)

func (l *NopAuditLogger) Log(_ context.Context, _ AuditEvent) {}

// SlogAuditLogger writes audit events to the process's structured log with
// an AUDIT marker, keeping the trail greppable in single-instance installs.
type SlogAuditLogger struct{}

var _ AuditLogger = (*SlogAuditLogger)(nil)

func (l *SlogAuditLogger) Log(_ context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	slog.Info("[AUDIT]",
		"event_type", event.EventType,
		"timestamp", event.Timestamp.Format(time.RFC3339),
		"user_id", event.UserID,
		"request_id", event.RequestID,
		"outcome", event.Outcome,
		"metadata", event.Metadata,
	)
}

// AuditTrailLogger writes audit events through a logging.Logger, which
// gives the trail a dedicated file (and optionally an exporter) separate
// from operational logs.
type AuditTrailLogger struct {
	logger *logging.Logger
}

var _ AuditLogger = (*AuditTrailLogger)(nil)

func NewAuditTrailLogger(logger *logging.Logger) *AuditTrailLogger {
	return &AuditTrailLogger{logger: logger}
}

func (l *AuditTrailLogger) Log(_ context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	l.logger.Info("[AUDIT]",
		"event_type", event.EventType,
		"timestamp", event.Timestamp.Format(time.RFC3339),
		"user_id", event.UserID,
		"request_id", event.RequestID,
		"outcome", event.Outcome,
		"metadata", event.Metadata,
	)
}

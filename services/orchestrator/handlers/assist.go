// Package handlers contains the HTTP handlers for the orchestrator service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/cbs"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/llm"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/middleware"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/observability"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/prompt"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/policy"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/retrieval"
)

var assistTracer = otel.Tracer("bankassist.orchestrator.handlers")

// AssistDeps carries the collaborators of the assist pipeline. Engine and
// LLM are required; the rest degrade gracefully (nil CBS fails transactional
// context, a nil or disabled Retriever skips grounding, nil Audit and
// Metrics are no-ops).
type AssistDeps struct {
	Engine    *policy.Engine
	CBS       cbs.Client
	Retriever retrieval.Retriever
	LLM       llm.LLMClient
	Audit     extensions.AuditLogger
	Metrics   *observability.PipelineMetrics

	// FoldGenericTransactional skips the CBS lookup for the generic
	// transactional intent, treating it like a knowledge request. Ops
	// escape hatch for deployments where the status API is expensive.
	FoldGenericTransactional bool
}

// HandleAssist runs the full policy pipeline for one customer query.
//
// Order is load-bearing: the PII gate runs before any collaborator is
// touched, and the output guardrail runs after every model call. A model
// failure degrades to the fail-safe answer with payload status "error" but
// transport status 200, so clients render it as a normal turn.
func HandleAssist(deps AssistDeps) gin.HandlerFunc {
	if deps.Audit == nil {
		deps.Audit = &extensions.NopAuditLogger{}
	}

	return func(c *gin.Context) {
		ctx, span := assistTracer.Start(c.Request.Context(), "HandleAssist")
		defer span.End()
		started := time.Now()

		var req datatypes.AssistRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the assist request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		requestID := datatypes.NewRequestID()
		userID := "anonymous"
		if info := middleware.GetAuthInfo(c); info != nil {
			userID = info.UserID
		}
		span.SetAttributes(attribute.String("assist.request_id", requestID))

		// PII gate. Nothing leaves the process when it fires: no CBS, no
		// retrieval, no model.
		if findings := deps.Engine.ScanPII(req.Query); len(findings) > 0 {
			patternIds := make([]string, 0, len(findings))
			for _, f := range findings {
				patternIds = append(patternIds, f.PatternId)
			}
			slog.Info("PII-like input detected; request deflected",
				"request_id", requestID, "patterns", patternIds)
			deps.Audit.Log(ctx, extensions.AuditEvent{
				EventType: "policy.pii_deflected",
				UserID:    userID,
				RequestID: requestID,
				Outcome:   "blocked",
				Metadata:  map[string]any{"patterns": patternIds},
			})
			if deps.Metrics != nil {
				deps.Metrics.PIIDeflectionsTotal.Inc()
				deps.Metrics.RequestsTotal.WithLabelValues(
					string(policy.IntentPIIDeflected), datatypes.StatusOK).Inc()
			}
			c.JSON(http.StatusOK, datatypes.AssistResponse{
				RequestID: requestID,
				Status:    datatypes.StatusOK,
				Message:   policy.SafePIIResponse,
				Intent:    string(policy.IntentPIIDeflected),
				RagUsed:   false,
				Sources:   []string{},
			})
			return
		}

		intent := deps.Engine.DetectIntent(req.Query)
		span.SetAttributes(attribute.String("assist.intent", string(intent)))
		safeHistory := deps.Engine.SanitizeHistory(req.History, intent)

		// Knowledge grounding for the knowledge and feature paths. Failure
		// degrades the answer; it never fails the request.
		var retrieved []datatypes.RetrievedChunk
		if (intent == policy.IntentKnowledge || intent == policy.IntentFeature) &&
			deps.Retriever != nil && deps.Retriever.Enabled() {
			ragQuery := req.Query
			if intent == policy.IntentFeature {
				ragQuery = policy.FeatureRetrievalHint(req.Query)
			}
			var err error
			retrieved, err = deps.Retriever.Retrieve(ctx, ragQuery, retrieval.DefaultTopK)
			if err != nil {
				slog.Warn("Knowledge retrieval failed, continuing ungrounded",
					"request_id", requestID, "error", err)
				if deps.Metrics != nil {
					deps.Metrics.RetrievalFailuresTotal.Inc()
				}
				retrieved = nil
			}
		}

		maskedCtx, err := assembleMaskedContext(ctx, deps, intent, req.Query, req.CustomerID)
		if err != nil {
			slog.Error("CBS status lookup failed", "request_id", requestID, "error", err)
			if deps.Metrics != nil {
				deps.Metrics.CBSLookupFailuresTotal.Inc()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch account status"})
			return
		}

		messages := prompt.Compose(req.Query, maskedCtx, safeHistory, intent, retrieved)
		for i := range messages {
			messages[i].Content = policy.MaskSensitiveInfo(messages[i].Content)
		}

		status := datatypes.StatusOK
		llmStarted := time.Now()
		answer, err := deps.LLM.Chat(ctx, messages, llm.GenerationParams{})
		if err != nil {
			slog.Error("LLMClient.Chat failed", "request_id", requestID, "error", err)
			span.RecordError(err)
			if deps.Metrics != nil {
				deps.Metrics.LLMDurationSeconds.WithLabelValues("error").
					Observe(time.Since(llmStarted).Seconds())
			}
			answer = policy.FailSafeAnswer
			status = datatypes.StatusError
		} else if deps.Metrics != nil {
			deps.Metrics.LLMDurationSeconds.WithLabelValues("success").
				Observe(time.Since(llmStarted).Seconds())
		}

		// Guardrail runs on every answer, including the fail-safe one.
		safeAnswer, diag := policy.EnforceOutputPolicies(answer, intent, maskedCtx)
		if diag.Changed {
			slog.Warn("Output rewritten by guardrail",
				"request_id", requestID, "notes", diag.Notes)
			deps.Audit.Log(ctx, extensions.AuditEvent{
				EventType: "policy.guardrail_rewrite",
				UserID:    userID,
				RequestID: requestID,
				Outcome:   "success",
				Metadata:  map[string]any{"intent": string(intent), "notes": diag.Notes},
			})
			if deps.Metrics != nil {
				deps.Metrics.GuardrailRewritesTotal.WithLabelValues(string(intent)).Inc()
			}
		}

		sources := make([]string, 0, len(retrieved))
		for _, r := range retrieved {
			if r.Source != "" {
				sources = append(sources, r.Source)
			}
		}

		if deps.Metrics != nil {
			deps.Metrics.RequestsTotal.WithLabelValues(string(intent), status).Inc()
			deps.Metrics.RequestDurationSeconds.WithLabelValues(string(intent)).
				Observe(time.Since(started).Seconds())
		}
		deps.Audit.Log(ctx, extensions.AuditEvent{
			EventType: "assist.request",
			UserID:    userID,
			RequestID: requestID,
			Outcome:   status,
			Metadata: map[string]any{
				"intent":   string(intent),
				"rag_used": len(retrieved) > 0,
			},
		})

		c.JSON(http.StatusOK, datatypes.AssistResponse{
			RequestID: requestID,
			Status:    status,
			Message:   safeAnswer,
			Intent:    string(intent),
			RagUsed:   len(retrieved) > 0,
			Sources:   sources,
		})
	}
}

// assembleMaskedContext builds the intent-scoped, non-PII context map.
//
// Login requests carry the lock fields; feature requests structurally
// exclude them so the model cannot see lock evidence it must not assert;
// knowledge requests carry nothing. Absent values are explicit JSON nulls.
func assembleMaskedContext(
	ctx context.Context,
	deps AssistDeps,
	intent policy.Intent,
	query, customerID string,
) (policy.MaskedContext, error) {
	switch intent {
	case policy.IntentLogin:
		snapshot, err := deps.CBS.FetchAccountSnapshot(ctx, customerID)
		if err != nil {
			return nil, err
		}
		return policy.MaskedContext{
			policy.CtxNetbankingStatus: nullable(snapshot.NetbankingStatus),
			policy.CtxReasonCode:       nullable(snapshot.ReasonCode),
			policy.CtxLastFailedLogin:  nullable(snapshot.LastFailedLogin),
		}, nil

	case policy.IntentFeature:
		feature := "feature_issue"
		if strings.Contains(strings.ToLower(query), "balance") {
			feature = "balance_enquiry"
		}
		return policy.MaskedContext{policy.CtxFeature: feature}, nil

	case policy.IntentTransactional:
		if deps.FoldGenericTransactional {
			return nil, nil
		}
		snapshot, err := deps.CBS.FetchAccountSnapshot(ctx, customerID)
		if err != nil {
			return nil, err
		}
		return policy.MaskedContext{
			policy.CtxNetbankingStatus: nullable(snapshot.NetbankingStatus),
			policy.CtxReasonCode:       nullable(snapshot.ReasonCode),
		}, nil

	default:
		return nil, nil
	}
}

// nullable maps empty strings to nil so they render as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

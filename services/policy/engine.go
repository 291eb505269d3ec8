// Package policy implements the deterministic gates and transforms that wrap
// the untrusted text-generation call: PII detection, intent classification,
// history sanitization, masking, and the post-generation output guardrail.
//
// Every component is a pure function over per-request inputs. The pattern
// vocabularies live as data in an embedded YAML file (see the enforcement
// package) so they stay reviewable and testable independently of the control
// logic that applies them.
//
// The orchestrator must consult the engine in a strict order: the PII gate
// runs before any collaborator call, and the guardrail runs after every
// model call. Misordering either is a compliance violation, not a bug.
package policy

import (
	"fmt"
	"strings"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/policy/enforcement"
	"gopkg.in/yaml.v3"
)

// SafePIIResponse is the fixed deflection message returned when the PII gate
// fires. It is sent with payload status "ok" so the UI renders it as a normal
// assistant turn.
const SafePIIResponse = "For your security, please don’t share account/card numbers, CVV, OTP, UPI IDs, PAN, IFSC or phone numbers here. " +
	"I can guide you with general troubleshooting or connect you to secure support channels."

// FailSafeAnswer is returned in place of model output when generation fails.
// The payload status flips to "error" but the HTTP status stays 200 so the
// caller renders it uniformly.
const FailSafeAnswer = "I'm sorry, I'm currently facing some technical difficulties. Please try again in a little while."

// Engine holds the compiled pattern tables. Construct once at startup and
// share across requests; all methods are safe for concurrent use since the
// tables are read-only after New.
type Engine struct {
	patterns PatternFile
}

// NewEngine initializes a policy engine from the embedded pattern tables.
//
// It unmarshals the embedded YAML, compiles every regex, and sorts the intent
// vocabularies by priority. Returns an error if the embedded YAML is
// malformed or contains an invalid regex.
func NewEngine() (*Engine, error) {
	var patterns PatternFile
	if err := yaml.Unmarshal(enforcement.BankingPolicyPatterns, &patterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded policy file: %w", err)
	}
	if err := patterns.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile a policy pattern: %w", err)
	}
	if len(patterns.PIISignals) == 0 || len(patterns.Intents) == 0 {
		return nil, fmt.Errorf("embedded policy file is missing pattern tables")
	}
	return &Engine{patterns: patterns}, nil
}

// ContainsPIILike reports whether the text carries a PII-like signal: a
// regulated-identifier keyword or a long digit run. Blank input is not PII.
//
// The orchestrator checks this BEFORE any external call; a positive match
// short-circuits the whole pipeline. Fail-closed: over-blocking is fine.
func (e *Engine) ContainsPIILike(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for i := range e.patterns.PIISignals {
		if e.patterns.PIISignals[i].compiled.MatchString(text) {
			return true
		}
	}
	return false
}

// ScanPII returns one finding per matching PII signal. Findings identify the
// pattern only, never the matched content, so they are safe to audit-log.
func (e *Engine) ScanPII(text string) []Finding {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var findings []Finding
	for i := range e.patterns.PIISignals {
		sig := &e.patterns.PIISignals[i]
		if sig.compiled.MatchString(text) {
			findings = append(findings, Finding{
				PatternId:          sig.Id,
				PatternDescription: sig.Description,
				Confidence:         sig.Confidence,
			})
		}
	}
	return findings
}

// DetectIntent classifies a query into exactly one intent. Pure and total:
// intents are checked in descending priority, first match wins, and an
// unmatched query defaults to knowledge — the only intent that never
// triggers a CBS fetch.
func (e *Engine) DetectIntent(query string) Intent {
	q := strings.TrimSpace(query)
	if q == "" {
		return IntentKnowledge
	}
	for i := range e.patterns.Intents {
		if e.patterns.Intents[i].compiled.MatchString(q) {
			return Intent(e.patterns.Intents[i].Name)
		}
	}
	return IntentKnowledge
}

// FeatureRetrievalHint maps a feature-issue query to a canned knowledge-base
// retrieval phrase. The hint, not the raw user text, is what goes to the
// retriever for feature intent, decoupling retrieval phrasing from whatever
// the customer typed.
func FeatureRetrievalHint(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "balance"):
		return "NetBanking balance enquiry troubleshooting"
	case strings.Contains(q, "transfer") || strings.Contains(q, "imps") || strings.Contains(q, "neft"):
		return "Fund transfer troubleshooting"
	case strings.Contains(q, "statement"):
		return "Mini statement / account statement troubleshooting"
	case strings.Contains(q, "pin") && (strings.Contains(q, "debit") || strings.Contains(q, "credit")):
		return "Reset debit/credit card PIN steps"
	default:
		return "NetBanking feature troubleshooting steps"
	}
}

package policy

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Intent is the handling category assigned to a user query. It governs what
// customer data may be fetched and how the model is instructed.
type Intent string

const (
	// IntentLogin covers authentication and access problems.
	IntentLogin Intent = "transactional:login"

	// IntentFeature covers post-login feature issues (balance enquiry,
	// statements, transfers). Lock evidence is structurally excluded from
	// its context.
	IntentFeature Intent = "transactional:feature"

	// IntentKnowledge routes to the knowledge base. This is also the default
	// when nothing matches: it is the only intent that never touches CBS.
	IntentKnowledge Intent = "knowledge"

	// IntentTransactional is the generic transactional fallback.
	IntentTransactional Intent = "transactional"

	// IntentPIIDeflected is an output-only label marking requests the PII
	// gate short-circuited. It is never produced by DetectIntent.
	IntentPIIDeflected Intent = "pii_deflected"
)

type ConfidenceLevel string

const (
	Low    ConfidenceLevel = "low"
	Medium ConfidenceLevel = "medium"
	High   ConfidenceLevel = "high"
)

func (c *ConfidenceLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := ConfidenceLevel(s)
	switch incoming {
	case High, Medium, Low:
		*c = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for Confidence: %q", incoming)
	}
}

// PatternFile mirrors the embedded YAML layout: a list of PII signal
// patterns and a priority-ordered list of intent vocabularies.
type PatternFile struct {
	PIISignals []SignalPattern `yaml:"pii_signals"`
	Intents    []IntentClass   `yaml:"intents"`
}

// SignalPattern is a single PII detection rule.
type SignalPattern struct {
	Id          string          `yaml:"id"`
	Description string          `yaml:"description"`
	Regex       string          `yaml:"regex"`
	Confidence  ConfidenceLevel `yaml:"confidence"`

	compiled *regexp.Regexp `yaml:"-"`
}

// IntentClass is one intent vocabulary. Higher priority classes are checked
// first; the first match wins.
type IntentClass struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority"`
	Regex       string `yaml:"regex"`

	compiled *regexp.Regexp `yaml:"-"`
}

// Compile compiles every regex in the file and sorts intents from highest to
// lowest priority. Must be called before the file is used for matching.
func (p *PatternFile) Compile() error {
	for i := range p.PIISignals {
		re, err := regexp.Compile(p.PIISignals[i].Regex)
		if err != nil {
			return fmt.Errorf("failed to compile the PII regex %s: %w", p.PIISignals[i].Regex, err)
		}
		p.PIISignals[i].compiled = re
	}
	for i := range p.Intents {
		re, err := regexp.Compile(p.Intents[i].Regex)
		if err != nil {
			return fmt.Errorf("failed to compile the intent regex %s: %w", p.Intents[i].Regex, err)
		}
		p.Intents[i].compiled = re
	}
	sort.Slice(p.Intents, func(i, j int) bool {
		return p.Intents[i].Priority > p.Intents[j].Priority
	})
	return nil
}

// Finding describes a single PII signal match, for audit logging. The matched
// content itself is never captured; only the pattern identity is.
type Finding struct {
	PatternId          string          `json:"pattern_id"`
	PatternDescription string          `json:"pattern_description"`
	Confidence         ConfidenceLevel `json:"confidence"`
}

// MaskedContext is the minimal, intent-scoped, non-PII account summary that
// may enter the prompt. Values may be nil (rendered as JSON null).
type MaskedContext map[string]any

// Keys used in MaskedContext. Only the assembler writes these; the guardrail
// reads them as lock evidence.
const (
	CtxNetbankingStatus = "netbanking_status"
	CtxReasonCode       = "reason_code"
	CtxLastFailedLogin  = "last_failed_login"
	CtxFeature          = "feature"
)

// HasLockEvidence reports whether the context explicitly confirms a lock:
// netbanking_status in {LOCKED, BLOCKED} or a reason code with the FAILED_
// prefix. Absence of evidence means lock claims must be neutralized.
func (m MaskedContext) HasLockEvidence() bool {
	status := strings.ToUpper(stringValue(m[CtxNetbankingStatus]))
	reason := strings.ToUpper(stringValue(m[CtxReasonCode]))
	return status == "LOCKED" || status == "BLOCKED" || strings.HasPrefix(reason, "FAILED_")
}

// CompactJSON renders the context as canonical JSON (sorted keys, no
// whitespace), truncated to maxChars. Used verbatim in the prompt.
func (m MaskedContext) CompactJSON(maxChars int) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	s := string(b)
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars]
	}
	return s
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

package policy

import (
	"regexp"
	"strings"
)

// ============================================================================
// Output Guardrail
// ============================================================================

var (
	// lockAssertion matches model output asserting an account lock state.
	lockAssertion = regexp.MustCompile(`(?i)\b(account\s+is\s+)?(locked|blocked|suspended|disabled)\b`)

	// credAssertion matches model output asserting a credential failure.
	credAssertion = regexp.MustCompile(`(?i)\b(wrong|invalid|incorrect)\s+(password|credentials|otp)\b`)
)

const (
	lockNeutralPhrase = "we can't confirm your account status from the available information"
	credNeutralPhrase = "we can’t confirm a credential issue based on current information"

	// guardrailFooter is appended exactly once to any rewritten answer. The
	// presence check keeps enforcement idempotent.
	guardrailFooter = "*Note:* Based on the current context, we avoid asserting " +
		"lock/credential issues without explicit confirmation. If you can share " +
		"the exact on-screen error message (no PII), I can guide you with " +
		"precise next steps."
)

// GuardrailDiagnostics reports what the output guardrail did to an answer.
type GuardrailDiagnostics struct {
	Changed bool
	Notes   []string
}

// # Description
//
//	EnforceOutputPolicies post-processes a model answer so it never asserts an
//	account lock or credential failure without backend evidence. Feature-path
//	answers are always held to the neutral wording; for other intents the
//	rewrite is skipped only when the masked context carries explicit lock
//	evidence (a LOCKED/BLOCKED status or a FAILED_* reason code). Whenever a
//	phrase is neutralized, an advisory footer is appended once.
//
// # Inputs
//
//	answer - The raw model answer
//	intent - The classified intent of the originating query
//	ctx    - The masked context that was shown to the model; may be nil
//
// # Outputs
//
//	string               - The enforced answer
//	GuardrailDiagnostics - Whether the answer changed and why
//
// # Limitations
//
//	Pattern-based: paraphrased assertions ("access has been revoked") pass
//	through. The patterns cover the vocabulary the system prompt permits.
func EnforceOutputPolicies(answer string, intent Intent, ctx MaskedContext) (string, GuardrailDiagnostics) {
	diag := GuardrailDiagnostics{}

	if strings.TrimSpace(answer) == "" {
		return answer, diag
	}
	if intent != IntentFeature && ctx.HasLockEvidence() {
		return answer, diag
	}

	enforced := answer
	if lockAssertion.MatchString(enforced) {
		enforced = lockAssertion.ReplaceAllString(enforced, lockNeutralPhrase)
		diag.Notes = append(diag.Notes, "removed_unproven_lock_claim")
	}
	if credAssertion.MatchString(enforced) {
		enforced = credAssertion.ReplaceAllString(enforced, credNeutralPhrase)
		diag.Notes = append(diag.Notes, "removed_unproven_credential_claim")
	}

	if len(diag.Notes) > 0 {
		diag.Changed = true
		if !strings.Contains(enforced, guardrailFooter) {
			enforced = strings.TrimRight(enforced, " \t\n") + "\n\n" + guardrailFooter
		}
	}
	return enforced, diag
}

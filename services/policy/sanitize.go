package policy

import (
	"regexp"
	"strings"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

// ============================================================================
// History Sanitization
// ============================================================================

var (
	// historyLockClaim matches user turns asserting an account lock state.
	// For feature-path requests these turns are dropped so stale lock claims
	// cannot steer the model into unverified assertions.
	historyLockClaim = regexp.MustCompile(`(?i)\b(locked|blocked|suspended|disabled)\b`)

	// historyCredClaim matches user turns asserting a credential failure.
	historyCredClaim = regexp.MustCompile(`(?i)\b(wrong|invalid|incorrect)\s+(password|credentials|otp)\b`)
)

// # Description
//
//	SanitizeHistory filters untrusted conversation history before it can reach
//	a prompt. Turns with empty content are dropped. User turns that trip the
//	PII gate are dropped entirely (masking is not enough: the surrounding text
//	still names the identifier). When the live query resolved to the feature
//	intent, turns of any role claiming locks or credential failures are also
//	dropped, so a feature answer is never contaminated by unverified incident
//	claims. Surviving content is masked. Relative order is preserved.
//
// # Inputs
//
//	history - Ordered turns supplied by the caller, oldest first
//	intent  - The intent of the live query, already classified
//
// # Outputs
//
//	[]datatypes.Message - Sanitized copy; never aliases the input slice
func (e *Engine) SanitizeHistory(history []datatypes.Message, intent Intent) []datatypes.Message {
	out := make([]datatypes.Message, 0, len(history))
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if turn.Role == datatypes.RoleUser && e.ContainsPIILike(content) {
			continue
		}
		if intent == IntentFeature &&
			(historyLockClaim.MatchString(content) || historyCredClaim.MatchString(content)) {
			continue
		}
		out = append(out, datatypes.Message{
			Role:    turn.Role,
			Content: MaskSensitiveInfo(turn.Content),
		})
	}
	return out
}

package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceOutputPolicies(t *testing.T) {
	lockedCtx := MaskedContext{
		CtxNetbankingStatus: "LOCKED",
		CtxReasonCode:       "FAILED_OTP_3",
	}
	activeCtx := MaskedContext{
		CtxNetbankingStatus: "ACTIVE",
		CtxReasonCode:       nil,
	}

	t.Run("lock assertion passes with evidence on login path", func(t *testing.T) {
		answer := "Your account is locked after repeated OTP failures."
		got, diag := EnforceOutputPolicies(answer, IntentLogin, lockedCtx)
		assert.Equal(t, answer, got)
		assert.False(t, diag.Changed)
	})

	t.Run("lock assertion neutralized without evidence", func(t *testing.T) {
		got, diag := EnforceOutputPolicies(
			"It looks like your account is locked.", IntentLogin, activeCtx)
		assert.True(t, diag.Changed)
		assert.NotContains(t, strings.ToLower(got), "account is locked")
		assert.Contains(t, got, lockNeutralPhrase)
		assert.Contains(t, got, guardrailFooter)
	})

	t.Run("feature path neutralized even with lock evidence", func(t *testing.T) {
		got, diag := EnforceOutputPolicies(
			"Your account is blocked, so balance enquiry fails.", IntentFeature, lockedCtx)
		assert.True(t, diag.Changed)
		assert.Contains(t, got, lockNeutralPhrase)
	})

	t.Run("credential assertion neutralized", func(t *testing.T) {
		got, diag := EnforceOutputPolicies(
			"You entered the wrong password three times.", IntentLogin, activeCtx)
		assert.True(t, diag.Changed)
		assert.Contains(t, got, credNeutralPhrase)
		assert.Contains(t, diag.Notes, "removed_unproven_credential_claim")
	})

	t.Run("clean answer untouched", func(t *testing.T) {
		answer := "You can reset your PIN from the cards menu."
		got, diag := EnforceOutputPolicies(answer, IntentFeature, activeCtx)
		assert.Equal(t, answer, got)
		assert.False(t, diag.Changed)
		assert.Empty(t, diag.Notes)
	})

	t.Run("nil context means no evidence", func(t *testing.T) {
		_, diag := EnforceOutputPolicies(
			"Your account is suspended.", IntentKnowledge, nil)
		assert.True(t, diag.Changed)
	})

	t.Run("enforcement is idempotent", func(t *testing.T) {
		first, diag := EnforceOutputPolicies(
			"Your account is locked due to an invalid otp.", IntentLogin, activeCtx)
		require.True(t, diag.Changed)
		assert.Equal(t, 1, strings.Count(first, guardrailFooter))

		second, diag2 := EnforceOutputPolicies(first, IntentLogin, activeCtx)
		assert.Equal(t, first, second)
		assert.False(t, diag2.Changed)
		assert.Equal(t, 1, strings.Count(second, guardrailFooter))
	})
}

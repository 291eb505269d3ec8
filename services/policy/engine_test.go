package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	require.NoError(t, err)
	return e
}

func TestNewEngine_LoadsEmbeddedPatterns(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e)
	assert.NotEmpty(t, e.patterns.PIISignals)
	assert.NotEmpty(t, e.patterns.Intents)
}

func TestContainsPIILike(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "keyword hint account number",
			input: "my account number is not working",
			want:  true,
		},
		{
			name:  "keyword hint with spacing",
			input: "here is my card  number",
			want:  true,
		},
		{
			name:  "keyword hint otp",
			input: "I did not receive the OTP",
			want:  true,
		},
		{
			name:  "keyword hint aadhaar",
			input: "can I link my aadhaar",
			want:  true,
		},
		{
			name:  "long digit run plain",
			input: "here it is 12345678",
			want:  true,
		},
		{
			name:  "long digit run with separators",
			input: "card 1234-5678-9012-3456 blocked",
			want:  true,
		},
		{
			name:  "seven digits do not trip the run signal",
			input: "reference 1234567 pending",
			want:  false,
		},
		{
			name:  "benign feature question",
			input: "how do I check my balance",
			want:  false,
		},
		{
			name:  "empty input",
			input: "",
			want:  false,
		},
		{
			name:  "whitespace only",
			input: "   \t  ",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ContainsPIILike(tt.input))
		})
	}
}

func TestScanPII_FindingsCarryNoMatchedContent(t *testing.T) {
	e := newTestEngine(t)

	findings := e.ScanPII("my account number is 12345678901")
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.NotEmpty(t, f.PatternId)
		assert.NotContains(t, f.PatternDescription, "12345678901")
	}
}

func TestDetectIntent(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{
			name:  "login keywords",
			query: "I cannot sign in to netbanking",
			want:  IntentLogin,
		},
		{
			name:  "otp failure is login",
			query: "my otp fails every time",
			want:  IntentLogin,
		},
		{
			name:  "feature enquiry",
			query: "how do I set up fund transfer limits",
			want:  IntentFeature,
		},
		{
			name:  "mini statement is feature",
			query: "where can I get a mini statement",
			want:  IntentFeature,
		},
		{
			name:  "knowledge question",
			query: "what is the interest rate on savings accounts",
			want:  IntentKnowledge,
		},
		{
			name:  "login outranks knowledge when both match",
			query: "my account is locked, also what is the interest rate",
			want:  IntentLogin,
		},
		{
			name:  "login outranks feature when both match",
			query: "password reset before I can use bill pay",
			want:  IntentLogin,
		},
		{
			name:  "transactional generic",
			query: "transfer money to my brother today",
			want:  IntentTransactional,
		},
		{
			name:  "empty query defaults to knowledge",
			query: "  ",
			want:  IntentKnowledge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.DetectIntent(tt.query))
		})
	}
}

func TestMaskSensitiveInfo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "ten digit account masked",
			input: "account 1234567890 is mine",
			want:  "account XXXXXX7890 is mine",
		},
		{
			name:  "twelve digit account masked",
			input: "aadhaar 123456789012",
			want:  "aadhaar XXXXXX789012",
		},
		{
			name:  "short numbers untouched",
			input: "The year is 2025",
			want:  "The year is 2025",
		},
		{
			name:  "six digits untouched",
			input: "pin code 560001",
			want:  "pin code 560001",
		},
		{
			name:  "multiple occurrences all masked",
			input: "from 1234567890 to 9876543210",
			want:  "from XXXXXX7890 to XXXXXX3210",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskSensitiveInfo(tt.input))
		})
	}
}

func TestSanitizeHistory(t *testing.T) {
	e := newTestEngine(t)

	t.Run("drops empty turns", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleUser, Content: "   "},
			{Role: datatypes.RoleAssistant, Content: "Hello, how can I help?"},
		}
		got := e.SanitizeHistory(history, IntentKnowledge)
		require.Len(t, got, 1)
		assert.Equal(t, datatypes.RoleAssistant, got[0].Role)
	})

	t.Run("drops user turns that trip the pii gate", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleUser, Content: "my account number is 12345678901"},
			{Role: datatypes.RoleUser, Content: "how do I reset my password"},
		}
		got := e.SanitizeHistory(history, IntentLogin)
		require.Len(t, got, 1)
		assert.Equal(t, "how do I reset my password", got[0].Content)
	})

	t.Run("feature intent drops lock and credential claims", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleUser, Content: "my account is locked I think"},
			{Role: datatypes.RoleUser, Content: "I typed the wrong password earlier"},
			{Role: datatypes.RoleUser, Content: "anyway, how do card controls work"},
		}
		got := e.SanitizeHistory(history, IntentFeature)
		require.Len(t, got, 1)
		assert.Equal(t, "anyway, how do card controls work", got[0].Content)
	})

	t.Run("non-feature intent keeps lock claims", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleUser, Content: "my account is locked I think"},
		}
		got := e.SanitizeHistory(history, IntentLogin)
		require.Len(t, got, 1)
	})

	t.Run("feature intent drops assistant lock claims too", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleAssistant, Content: "your account might be locked"},
			{Role: datatypes.RoleAssistant, Content: "try clearing the app cache"},
		}
		got := e.SanitizeHistory(history, IntentFeature)
		require.Len(t, got, 1)
		assert.Equal(t, "try clearing the app cache", got[0].Content)
	})

	t.Run("survivors are masked and order preserved", func(t *testing.T) {
		history := []datatypes.Message{
			{Role: datatypes.RoleAssistant, Content: "sent to 1234567890"},
			{Role: datatypes.RoleUser, Content: "thanks"},
		}
		got := e.SanitizeHistory(history, IntentKnowledge)
		require.Len(t, got, 2)
		assert.Equal(t, "sent to XXXXXX7890", got[0].Content)
		assert.Equal(t, "thanks", got[1].Content)
	})
}

func TestFeatureRetrievalHint(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "balance",
			query: "how do I check my balance",
			want:  "NetBanking balance enquiry troubleshooting",
		},
		{
			name:  "statement",
			query: "download mini statement",
			want:  "Mini statement / account statement troubleshooting",
		},
		{
			name:  "transfer",
			query: "set up a fund transfer",
			want:  "Fund transfer troubleshooting",
		},
		{
			name:  "card pin",
			query: "reset my debit card pin",
			want:  "Reset debit/credit card PIN steps",
		},
		{
			name:  "generic",
			query: "card controls are not loading",
			want:  "NetBanking feature troubleshooting steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FeatureRetrievalHint(tt.query))
		})
	}
}

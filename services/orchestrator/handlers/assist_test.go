package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/cbs"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/llm"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/policy"
)

// =============================================================================
// Mock Collaborators
// =============================================================================

type mockLLM struct {
	answer      string
	err         error
	calls       int
	gotMessages []datatypes.Message
}

func (m *mockLLM) Chat(_ context.Context, messages []datatypes.Message, _ llm.GenerationParams) (string, error) {
	m.calls++
	m.gotMessages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

type mockRetriever struct {
	chunks   []datatypes.RetrievedChunk
	err      error
	calls    int
	gotQuery string
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, _ int) ([]datatypes.RetrievedChunk, error) {
	m.calls++
	m.gotQuery = query
	return m.chunks, m.err
}

func (m *mockRetriever) Enabled() bool { return true }

type mockCBS struct {
	snapshot *cbs.AccountSnapshot
	err      error
	calls    int
}

func (m *mockCBS) FetchAccountSnapshot(_ context.Context, _ string) (*cbs.AccountSnapshot, error) {
	m.calls++
	return m.snapshot, m.err
}

// =============================================================================
// Test Helpers
// =============================================================================

func newTestDeps(t *testing.T) (AssistDeps, *mockLLM, *mockRetriever, *mockCBS) {
	t.Helper()
	engine, err := policy.NewEngine()
	require.NoError(t, err)

	llmMock := &mockLLM{answer: "Here are the steps."}
	retrieverMock := &mockRetriever{}
	cbsMock := &mockCBS{snapshot: &cbs.AccountSnapshot{
		MaskedAccount:    "XXXXXX1234",
		NetbankingStatus: "ACTIVE",
	}}

	return AssistDeps{
		Engine:    engine,
		CBS:       cbsMock,
		Retriever: retrieverMock,
		LLM:       llmMock,
	}, llmMock, retrieverMock, cbsMock
}

func performAssist(t *testing.T, deps AssistDeps, body string) (*httptest.ResponseRecorder, datatypes.AssistResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v1/assist", HandleAssist(deps))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp datatypes.AssistResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func assistBody(query string) string {
	return fmt.Sprintf(`{"session_id":"sess-1","customer_id":"CUST-1","query":%q}`, query)
}

// =============================================================================
// Scenarios
// =============================================================================

func TestHandleAssist_PIIGateShortCircuits(t *testing.T) {
	deps, llmMock, retrieverMock, cbsMock := newTestDeps(t)

	w, resp := performAssist(t, deps, assistBody("my account number is 12345678901, why is login failing"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, datatypes.StatusOK, resp.Status)
	assert.Equal(t, string(policy.IntentPIIDeflected), resp.Intent)
	assert.Equal(t, policy.SafePIIResponse, resp.Message)
	assert.False(t, resp.RagUsed)
	assert.Empty(t, resp.Sources)
	assert.True(t, strings.HasPrefix(resp.RequestID, "req-"))
	assert.Len(t, resp.RequestID, len("req-")+12)

	// Nothing may leave the process on a deflection.
	assert.Zero(t, llmMock.calls)
	assert.Zero(t, retrieverMock.calls)
	assert.Zero(t, cbsMock.calls)
}

func TestHandleAssist_LoginIntentWithLockedAccount(t *testing.T) {
	deps, llmMock, retrieverMock, cbsMock := newTestDeps(t)
	cbsMock.snapshot = &cbs.AccountSnapshot{
		MaskedAccount:    "XXXXXX1234",
		NetbankingStatus: "LOCKED",
		ReasonCode:       "FAILED_OTP_3",
		LastFailedLogin:  "2026-08-27T10:00:00Z",
	}
	llmMock.answer = "Your account is locked after repeated OTP failures. Visit a branch to unblock."

	w, resp := performAssist(t, deps, assistBody("I cannot sign in to netbanking"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, datatypes.StatusOK, resp.Status)
	assert.Equal(t, string(policy.IntentLogin), resp.Intent)
	// Lock evidence exists, so the lock assertion survives.
	assert.Contains(t, resp.Message, "locked")
	assert.False(t, resp.RagUsed)

	assert.Equal(t, 1, cbsMock.calls)
	assert.Equal(t, 1, llmMock.calls)
	assert.Zero(t, retrieverMock.calls, "login path never retrieves")

	// The masked context reached the prompt.
	var sawContext bool
	for _, m := range llmMock.gotMessages {
		if strings.Contains(m.Content, `"netbanking_status":"LOCKED"`) {
			sawContext = true
		}
	}
	assert.True(t, sawContext, "expected the CBS context in the prompt")
}

func TestHandleAssist_FeatureIntentGuardrailRewrites(t *testing.T) {
	deps, llmMock, retrieverMock, cbsMock := newTestDeps(t)
	retrieverMock.chunks = []datatypes.RetrievedChunk{
		{Doc: "Open the app, go to Accounts, tap Balance.", Source: "kb/balance.md", Score: 0.91, Rank: 1},
	}
	llmMock.answer = "Your account is blocked, that is why balance enquiry fails."

	w, resp := performAssist(t, deps, assistBody("balance check is not working"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(policy.IntentFeature), resp.Intent)
	assert.True(t, resp.RagUsed)
	assert.Equal(t, []string{"kb/balance.md"}, resp.Sources)

	// Feature answers never assert locks, even if the model did.
	assert.NotContains(t, strings.ToLower(resp.Message), "account is blocked")
	assert.Contains(t, resp.Message, "*Note:*")

	assert.Equal(t, 1, retrieverMock.calls)
	assert.Equal(t, "NetBanking balance enquiry troubleshooting", retrieverMock.gotQuery)
	assert.Zero(t, cbsMock.calls, "feature path must not fetch lock fields")
}

func TestHandleAssist_KnowledgeIntentRetrievesRawQuery(t *testing.T) {
	deps, llmMock, retrieverMock, cbsMock := newTestDeps(t)
	retrieverMock.chunks = []datatypes.RetrievedChunk{
		{Doc: "KYC requires one identity proof.", Source: "kb/kyc.md", Score: 0.88, Rank: 1},
	}
	llmMock.answer = "KYC requires one identity proof."

	query := "what is the kyc requirement"
	_, resp := performAssist(t, deps, assistBody(query))

	assert.Equal(t, string(policy.IntentKnowledge), resp.Intent)
	assert.True(t, resp.RagUsed)
	assert.Equal(t, query, retrieverMock.gotQuery)
	assert.Zero(t, cbsMock.calls)
}

func TestHandleAssist_RetrievalFailureDegrades(t *testing.T) {
	deps, llmMock, retrieverMock, _ := newTestDeps(t)
	retrieverMock.err = fmt.Errorf("weaviate unreachable")
	llmMock.answer = "I don’t have enough information from the bank’s knowledge base to answer that."

	w, resp := performAssist(t, deps, assistBody("what is the kyc requirement"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, datatypes.StatusOK, resp.Status)
	assert.False(t, resp.RagUsed)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 1, llmMock.calls, "a retrieval failure must not block the answer")
}

func TestHandleAssist_LLMFailureReturnsFailSafe(t *testing.T) {
	deps, llmMock, _, _ := newTestDeps(t)
	llmMock.err = fmt.Errorf("upstream timeout")

	w, resp := performAssist(t, deps, assistBody("what is the kyc requirement"))

	assert.Equal(t, http.StatusOK, w.Code, "generation failures keep a 200 transport status")
	assert.Equal(t, datatypes.StatusError, resp.Status)
	assert.Equal(t, policy.FailSafeAnswer, resp.Message)
}

func TestHandleAssist_CBSFailureIsFatal(t *testing.T) {
	deps, _, _, cbsMock := newTestDeps(t)
	cbsMock.snapshot = nil
	cbsMock.err = cbs.ErrLookupFailed

	w, _ := performAssist(t, deps, assistBody("I cannot sign in to netbanking"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleAssist_OutboundMasking(t *testing.T) {
	deps, llmMock, _, _ := newTestDeps(t)

	body := `{
		"session_id": "sess-1",
		"customer_id": "CUST-1",
		"query": "what is the kyc requirement",
		"history": [
			{"role": "assistant", "content": "your reference is 1234567890"}
		]
	}`
	_, _ = performAssist(t, deps, body)

	require.Equal(t, 1, llmMock.calls)
	for _, m := range llmMock.gotMessages {
		assert.NotContains(t, m.Content, "1234567890")
	}
	var sawMasked bool
	for _, m := range llmMock.gotMessages {
		if strings.Contains(m.Content, "XXXXXX7890") {
			sawMasked = true
		}
	}
	assert.True(t, sawMasked, "expected the masked history turn in the prompt")
}

func TestHandleAssist_InvalidBody(t *testing.T) {
	deps, _, _, _ := newTestDeps(t)

	w, _ := performAssist(t, deps, `{"query": "missing ids"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAssist_GenericTransactionalFoldSkipsCBS(t *testing.T) {
	deps, llmMock, _, cbsMock := newTestDeps(t)
	deps.FoldGenericTransactional = true
	llmMock.answer = "Transfers can take up to 30 minutes."

	_, resp := performAssist(t, deps, assistBody("transfer money to my brother today"))

	assert.Equal(t, string(policy.IntentTransactional), resp.Intent)
	assert.Zero(t, cbsMock.calls)
}

package orchestrator

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/cbs"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	result := applyConfigDefaults(Config{})

	assert.Equal(t, 8080, result.Port, "default port should be 8080")
	assert.Equal(t, "mock", result.CBSMode, "default CBS mode should be mock")
	assert.Equal(t, "welcome@123456789", result.JWTSecret,
		"default JWT secret should be the development fallback")
	assert.Equal(t, extensions.DefaultTokenTTL, result.TokenTTL)
	assert.Equal(t, "admin", result.AdminUsername)
	assert.Equal(t, "password123", result.AdminPassword)
	assert.Equal(t, "localhost:4317", result.OTelEndpoint)
	assert.True(t, result.EnableMetrics, "metrics should be enabled by default")
	assert.False(t, result.FoldGenericTransactional,
		"generic transactional lookups should run by default")
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := Config{
		Port:          9090,
		LLMBackend:    "openai",
		CBSMode:       "http",
		CBSBaseURL:    "http://cbs:9000",
		JWTSecret:     "supersecret",
		TokenTTL:      30 * time.Minute,
		AdminUsername: "ops",
		AdminPassword: "hunter2",
		OTelEndpoint:  "custom-collector:4317",
		WeaviateURL:   "http://weaviate:8080",
	}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 9090, result.Port)
	assert.Equal(t, "openai", result.LLMBackend)
	assert.Equal(t, "http", result.CBSMode)
	assert.Equal(t, "supersecret", result.JWTSecret)
	assert.Equal(t, 30*time.Minute, result.TokenTTL)
	assert.Equal(t, "ops", result.AdminUsername)
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint)
	assert.Equal(t, "http://weaviate:8080", result.WeaviateURL)
}

// =============================================================================
// CBS Client Initialization Tests
// =============================================================================

func TestInitCBSClient_Mock(t *testing.T) {
	s := &service{config: applyConfigDefaults(Config{MockLockedStatus: true})}

	require.NoError(t, s.initCBSClient())

	_, isMock := s.cbsClient.(*cbs.MockClient)
	assert.True(t, isMock, "mock mode should produce a MockClient")
}

func TestInitCBSClient_HTTPRequiresBaseURL(t *testing.T) {
	s := &service{config: applyConfigDefaults(Config{CBSMode: "http"})}

	err := s.initCBSClient()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CBSBaseURL")
}

func TestInitCBSClient_UnknownMode(t *testing.T) {
	s := &service{config: applyConfigDefaults(Config{CBSMode: "soap"})}

	assert.Error(t, s.initCBSClient())
}

// =============================================================================
// Weaviate Initialization Tests
// =============================================================================

func TestInitWeaviate_EmptyURLIsNotAnError(t *testing.T) {
	s := &service{config: applyConfigDefaults(Config{})}

	assert.NoError(t, s.initWeaviate())
	assert.Nil(t, s.weaviateClient)
	assert.Nil(t, s.retriever)
}

func TestInitWeaviate_InvalidURL(t *testing.T) {
	s := &service{config: applyConfigDefaults(Config{WeaviateURL: "http//broken"})}

	assert.Error(t, s.initWeaviate())
}

// =============================================================================
// Full Construction Tests
// =============================================================================

// newTestService builds a full service with the mock CBS backend and an
// Ollama LLM client pointed at a placeholder URL. Nothing dials out during
// construction, so this exercises the real New() wiring.
func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}

	svc, err := New(cfg, nil)
	require.NoError(t, err)
	return svc
}

func TestNew_RegistersCoreRoutes(t *testing.T) {
	svc := newTestService(t, Config{})

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/auth/login"},
		{"POST", "/v1/assist"},
	}

	routeSet := make(map[string]bool)
	for _, r := range svc.Router().Routes() {
		routeSet[r.Method+" "+r.Path] = true
	}
	for _, e := range expected {
		assert.True(t, routeSet[e.method+" "+e.path],
			"route %s %s should be registered", e.method, e.path)
	}

	// No Weaviate configured, so ingestion routes stay unmounted.
	assert.False(t, routeSet["POST /v1/documents"])
}

func TestNew_HealthCheck(t *testing.T) {
	svc := newTestService(t, Config{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_DefaultAuthRejectsAnonymous(t *testing.T) {
	svc := newTestService(t, Config{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/assist", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code,
		"default wiring should require a bearer token on /v1")
}

func TestNew_CustomOptionsAreUsed(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")

	opts := &extensions.ServiceOptions{
		AuthProvider: &extensions.NopAuthProvider{},
		AuditLogger:  &extensions.NopAuditLogger{},
	}
	svc, err := New(Config{LLMBackend: "ollama"}, opts)
	require.NoError(t, err)

	// NopAuthProvider admits everything, so an anonymous /v1 request gets
	// past the middleware and fails validation instead.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/assist", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Package orchestrator provides the core assistant service for the banking
// chatbot.
//
// This package contains the main service type that coordinates all
// components: HTTP routing, the policy engine, the CBS status client, the
// LLM client, the Weaviate knowledge base, and observability infrastructure.
//
// # Extension Points
//
// The orchestrator supports dependency injection via extensions.ServiceOptions,
// enabling deployments to provide custom implementations of:
//   - AuthProvider: Custom authentication (JWT, API gateway headers)
//   - AuditLogger: Compliance audit logging
//
// # Usage
//
// Defaults (JWT auth with the built-in admin account, slog audit):
//
//	cfg := orchestrator.Config{Port: 8080}
//	svc, err := orchestrator.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/cbs"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/llm"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/handlers"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/observability"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/routes"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/policy"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/retrieval"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the orchestrator service.
//
// # Description
//
// Service abstracts the orchestrator lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for integration testing.
	// Callers must not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds orchestrator configuration options.
//
// # Description
//
// Config centralizes all configuration for the orchestrator service.
// Values can be populated from environment variables, config files,
// or programmatically for testing. All fields have usable defaults,
// applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 8080
	Port int

	// LLMBackend selects the LLM provider.
	// Valid values: "openai", "ollama", "" (resolve from LLM_PROVIDER env).
	LLMBackend string

	// WeaviateURL is the Weaviate vector database URL.
	// If empty, knowledge-base grounding and document ingestion are disabled.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// EmbeddingServiceURL is the base URL of the embedding sidecar.
	// Required for retrieval; if empty the service answers ungrounded.
	EmbeddingServiceURL string

	// CBSMode selects the core banking status client.
	// Valid values: "mock", "http". Default: "mock"
	CBSMode string

	// CBSBaseURL is the core banking status API base URL (CBSMode "http").
	CBSBaseURL string

	// CBSAPIKey is the bearer token for the status API (CBSMode "http").
	CBSAPIKey string

	// MockLockedStatus makes the mock CBS client report a locked account.
	// Zero value means the mock account is active.
	MockLockedStatus bool

	// JWTSecret signs and verifies login tokens.
	// Default: "welcome@123456789" (override in any real deployment).
	JWTSecret string

	// TokenTTL is the lifetime of issued login tokens. Default: 1 hour.
	TokenTTL time.Duration

	// AdminUsername and AdminPassword are the credentials accepted by
	// POST /auth/login. Defaults: "admin" / "password123".
	AdminUsername string
	AdminPassword string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "localhost:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	// Default: true
	EnableMetrics bool

	// FoldGenericTransactional skips the CBS lookup for generic
	// transactional queries. Default: false (lookup runs).
	FoldGenericTransactional bool
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service coordinates:
//   - HTTP routing via Gin
//   - Policy engine (PII gate, intent detection, guardrail)
//   - CBS status client
//   - LLM client management
//   - Optional Weaviate retrieval
//   - OpenTelemetry tracing and Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New() returns.
type service struct {
	config         Config
	opts           extensions.ServiceOptions
	router         *gin.Engine
	policyEngine   *policy.Engine
	cbsClient      cbs.Client
	llmClient      llm.LLMClient
	weaviateClient *weaviate.Client
	embedder       retrieval.EmbeddingProvider
	retriever      retrieval.Retriever
	tokenIssuer    *extensions.JWTAuthProvider
	tracerCleanup  func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new orchestrator Service with the given configuration.
//
// # Description
//
// New initializes all orchestrator components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Creates the policy engine
//  5. Creates the CBS client per CBSMode
//  6. Creates the Weaviate client and retriever if configured
//  7. Creates the LLM client
//  8. Sets up HTTP routes with extension options
//
// If opts is nil, the built-in JWT provider handles auth and audit events
// go to slog.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - opts: Extension options. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run orchestrator service
//   - error: Non-nil if initialization fails
//
// # Limitations
//
//   - Weaviate connection is optional; failures degrade to ungrounded answers
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	s.tokenIssuer = extensions.NewJWTAuthProvider(s.config.JWTSecret, s.config.TokenTTL)

	// Apply extension options. Unset fields fall back to the built-in JWT
	// provider for auth and slog for audit.
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.AuthProvider == nil {
		s.opts.AuthProvider = s.tokenIssuer
	}
	if s.opts.AuditLogger == nil {
		s.opts.AuditLogger = &extensions.SlogAuditLogger{}
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus pipeline metrics")
	}

	s.policyEngine, err = policy.NewEngine()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	if err := s.initCBSClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize CBS client: %w", err)
	}

	// Optional: Weaviate plus the embedding sidecar enable grounding.
	if err := s.initWeaviate(); err != nil {
		slog.Warn("Weaviate initialization failed, answering without knowledge grounding",
			"error", err)
	}

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting assistant server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.CBSMode == "" {
		cfg.CBSMode = "mock"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "welcome@123456789"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = extensions.DefaultTokenTTL
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "password123"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "localhost:4317"
	}
	// Metrics are always on; the /metrics route costs nothing when unscraped.
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up an OTLP trace exporter to send spans to the configured collector.
// The gRPC connection is lazy, so an unreachable collector does not block
// startup.
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
//
// # Limitations
//
//   - Uses insecure gRPC (appropriate for internal networks)
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("bankassist-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initCBSClient creates the core banking status client per CBSMode.
func (s *service) initCBSClient() error {
	switch s.config.CBSMode {
	case "mock":
		s.cbsClient = cbs.NewMockClient(s.config.MockLockedStatus)
		slog.Info("Using mock CBS client", "locked", s.config.MockLockedStatus)
	case "http":
		if s.config.CBSBaseURL == "" {
			return fmt.Errorf("CBSMode %q requires CBSBaseURL", s.config.CBSMode)
		}
		s.cbsClient = cbs.NewHTTPClient(s.config.CBSBaseURL, s.config.CBSAPIKey, 5*time.Second)
		slog.Info("Using HTTP CBS client", "base_url", s.config.CBSBaseURL)
	default:
		return fmt.Errorf("unknown CBS mode: %s", s.config.CBSMode)
	}
	return nil
}

// initWeaviate initializes the Weaviate client and the knowledge retriever.
//
// # Description
//
// Creates a Weaviate client if WeaviateURL is configured, ensures the
// KnowledgeChunk schema, and wires the retriever when the embedding
// sidecar is also configured.
//
// # Limitations
//
//   - Returns nil error if WeaviateURL is empty (optional dependency)
//   - Without EmbeddingServiceURL, query-time retrieval stays disabled
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, knowledge grounding disabled")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	clientConf := weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	}

	s.weaviateClient, err = weaviate.NewClient(clientConf)
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	if err := retrieval.EnsureSchema(context.Background(), s.weaviateClient); err != nil {
		slog.Warn("KnowledgeChunk schema check failed", "error", err)
	}
	slog.Info("Weaviate client initialized", "url", weaviateURL)

	if s.config.EmbeddingServiceURL == "" {
		slog.Info("Embedding service not configured, query-time retrieval disabled")
		return nil
	}
	s.embedder = retrieval.NewHTTPEmbedder(s.config.EmbeddingServiceURL, 30*time.Second)
	s.retriever = retrieval.NewWeaviateRetriever(s.weaviateClient, s.embedder)

	return nil
}

// initLLMClient initializes the LLM provider client.
func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "":
		s.llmClient, err = llm.NewFromEnv()
	default:
		slog.Warn("Unknown LLM backend, resolving from environment",
			"backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewFromEnv()
	}

	return err
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("bankassist-orchestrator"))

	routes.SetupRoutes(s.router, routes.Deps{
		Assist: handlers.AssistDeps{
			Engine:                   s.policyEngine,
			CBS:                      s.cbsClient,
			Retriever:                s.retriever,
			LLM:                      s.llmClient,
			Audit:                    s.opts.AuditLogger,
			Metrics:                  observability.DefaultMetrics,
			FoldGenericTransactional: s.config.FoldGenericTransactional,
		},
		Weaviate:    s.weaviateClient,
		Embedder:    s.embedder,
		TokenIssuer: s.tokenIssuer,
		Admin: handlers.AdminCredentials{
			Username: s.config.AdminUsername,
			Password: s.config.AdminPassword,
		},
		Opts:          s.opts,
		EnableMetrics: s.config.EnableMetrics,
	})
}

// cleanup releases all resources held by the service.
//
// Called when Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
	slog.Info("Orchestrator service cleaned up")
}

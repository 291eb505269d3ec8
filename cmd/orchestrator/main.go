// Command orchestrator starts the banking assistant HTTP server.
//
// This is the main entry point for the containerized orchestrator service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 8080)
//   - LLM_PROVIDER: LLM provider - openai, ollama (default: ollama)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - EMBEDDING_SERVICE_URL: Embedding sidecar URL (optional)
//   - CBS_MODE: Core banking status client - mock, http (default: mock)
//   - CBS_BASE_URL / CBS_API_KEY: Status API settings for CBS_MODE=http
//   - MOCK_LOCKED_STATUS: mock client reports a locked account (default: true)
//   - JWT_SECRET_KEY: shared secret for login tokens
//   - ADMIN_USERNAME / ADMIN_PASSWORD: credentials for POST /auth/login
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: localhost:4317)
//   - AUDIT_LOG_DIR: directory for a dedicated audit-trail log file (optional)
//   - FOLD_GENERIC_TRANSACTIONAL: skip CBS lookups for generic transactional
//     queries (default: false)
//
// # Usage
//
//	# Build
//	go build -o orchestrator ./cmd/orchestrator
//
//	# Run
//	./orchestrator
//
//	# Or via container
//	podman-compose up orchestrator
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/logging"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:                     getEnvInt("ORCHESTRATOR_PORT", 8080),
		LLMBackend:               os.Getenv("LLM_PROVIDER"),
		WeaviateURL:              os.Getenv("WEAVIATE_SERVICE_URL"),
		EmbeddingServiceURL:      os.Getenv("EMBEDDING_SERVICE_URL"),
		CBSMode:                  getEnvString("CBS_MODE", "mock"),
		CBSBaseURL:               os.Getenv("CBS_BASE_URL"),
		CBSAPIKey:                os.Getenv("CBS_API_KEY"),
		MockLockedStatus:         getEnvBool("MOCK_LOCKED_STATUS", true),
		JWTSecret:                os.Getenv("JWT_SECRET_KEY"),
		AdminUsername:            os.Getenv("ADMIN_USERNAME"),
		AdminPassword:            os.Getenv("ADMIN_PASSWORD"),
		OTelEndpoint:             os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		FoldGenericTransactional: getEnvBool("FOLD_GENERIC_TRANSACTIONAL", false),
	}

	slog.Info("Starting orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"cbs_mode", cfg.CBSMode,
		"weaviate_url", cfg.WeaviateURL,
	)

	// AUDIT_LOG_DIR routes the audit trail to its own JSON file; without
	// it, audit events share the process log.
	var opts *extensions.ServiceOptions
	if auditDir := os.Getenv("AUDIT_LOG_DIR"); auditDir != "" {
		trail := logging.New(logging.Config{
			LogDir:  auditDir,
			Service: "orchestrator-audit",
			Quiet:   true,
		})
		defer trail.Close()
		opts = &extensions.ServiceOptions{
			AuditLogger: extensions.NewAuditTrailLogger(trail),
		}
	}

	svc, err := orchestrator.New(cfg, opts)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

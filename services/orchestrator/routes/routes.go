package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/handlers"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/middleware"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/retrieval"
)

// Deps carries everything the route table needs. Assist holds the pipeline
// collaborators; Weaviate and Embedder are optional and gate the document
// ingestion routes.
type Deps struct {
	Assist      handlers.AssistDeps
	Weaviate    *weaviate.Client
	Embedder    retrieval.EmbeddingProvider
	TokenIssuer *extensions.JWTAuthProvider
	Admin       handlers.AdminCredentials
	Opts        extensions.ServiceOptions

	EnableMetrics bool
}

// SetupRoutes registers all HTTP routes on the given router.
//
// /health and /auth/login are public. Everything under /v1 requires a
// bearer token validated by the configured AuthProvider. Document routes
// are only mounted when both Weaviate and the embedding sidecar are
// configured, so lightweight deployments expose a smaller surface.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HandleHealth())

	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.TokenIssuer != nil {
		router.POST("/auth/login", handlers.HandleLogin(deps.TokenIssuer, deps.Admin, deps.Opts.AuditLogger))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Opts.AuthProvider))
	{
		v1.POST("/assist", handlers.HandleAssist(deps.Assist))

		if deps.Weaviate != nil && deps.Embedder != nil {
			v1.POST("/documents", handlers.CreateDocument(deps.Weaviate, deps.Embedder))
			v1.GET("/documents", handlers.ListDocuments(deps.Weaviate))
		}
	}
}

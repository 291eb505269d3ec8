package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/extensions"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

// AdminCredentials is the single configured operator login. Real identity
// integration happens behind extensions.AuthProvider; this endpoint only
// exists so local and demo installs can mint tokens.
type AdminCredentials struct {
	Username string
	Password string
}

// HandleLogin issues a bearer token for the configured admin credentials.
func HandleLogin(provider *extensions.JWTAuthProvider, creds AdminCredentials, audit extensions.AuditLogger) gin.HandlerFunc {
	if audit == nil {
		audit = &extensions.NopAuditLogger{}
	}

	return func(c *gin.Context) {
		var req datatypes.LoginRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Username != creds.Username || req.Password != creds.Password {
			audit.Log(c.Request.Context(), extensions.AuditEvent{
				EventType: "auth.failed",
				UserID:    req.Username,
				Outcome:   "failure",
			})
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := provider.Issue(req.Username)
		if err != nil {
			slog.Error("Failed to issue a token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		audit.Log(c.Request.Context(), extensions.AuditEvent{
			EventType: "auth.login",
			UserID:    req.Username,
			Outcome:   "success",
		})
		c.JSON(http.StatusOK, datatypes.LoginResponse{
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}

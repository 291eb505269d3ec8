package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealth reports process liveness. It deliberately checks nothing
// downstream: a degraded retriever or model still serves deflections and
// fail-safe answers, so the process is healthy as long as it can respond.
func HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

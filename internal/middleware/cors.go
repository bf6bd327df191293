package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const anyOrigin = "*"

// CORS answers preflight requests and sets the allow headers for allowedOrigin.
// An empty allowedOrigin allows any origin, matching the websocket upgrader. Credentials
// are only allowed for a concrete origin since browsers reject them alongside "*".
func CORS(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = anyOrigin
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		if allowedOrigin != anyOrigin {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows the configured front-end origin ("*" in development). A
// concrete origin also allows credentials so the dashboard can send cookies.
func CORS(allowOrigin string) gin.HandlerFunc {
	allowOrigin = strings.TrimSuffix(allowOrigin, "/")
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	allowHeaders := strings.Join([]string{"Authorization", "Content-Type", RequestIDHeader}, ", ")
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

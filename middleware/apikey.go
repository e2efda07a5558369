package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/internal/apierror"
)

// APIKeyGuard protects every route it wraps with a single shared-secret
// bearer token, checked via constant-time comparison so response timing
// never leaks how many leading bytes of an attempted key matched. An empty
// expected key disables the guard entirely — the gateway runs open, per
// spec §4.5's "optional" wrapper key.
func APIKeyGuard(expected string) gin.HandlerFunc {
	if expected == "" {
		return func(c *gin.Context) { c.Next() }
	}

	expectedBytes := []byte(expected)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			// No "Bearer " prefix present at all.
			apierror.Write(c, apierror.New(apierror.KindAuthentication, "missing_api_key", "missing Authorization: Bearer <key> header"))
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), expectedBytes) != 1 {
			apierror.Write(c, apierror.New(apierror.KindAuthentication, "invalid_api_key", "invalid API key"))
			return
		}

		c.Next()
	}
}

// Package middleware holds the gin middleware shared by every route group:
// request id assignment and the API-Key Guard.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/claudegateway/openai-bridge/common/helper"
)

// RequestID assigns a request id to every inbound request, honoring a
// caller-supplied X-Request-Id header so requests stay correlated across a
// proxy hop, and otherwise minting a fresh one. It must run before
// logging.Middleware so the request-scoped logger can tag every line with
// it, and before apierror.Write so error bodies carry it too.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(helper.RequestIdKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(helper.RequestIdKey, id)
		c.Writer.Header().Set(helper.RequestIdKey, id)
		c.Next()
	}
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func (s *Server) handleAuthStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var state = s.auth.Resolve(ctx)
	if c.Query("refresh") == "true" {
		state = s.auth.Refresh(ctx)
	}
	c.JSON(http.StatusOK, wire.FromDomainAuthState(state))
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	s.hooks.RecordSessionCount(len(s.sessions.List()))
	snap := s.hooks.Snapshot()
	status := http.StatusOK
	if !snap.ClaudeAvailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, snap)
}

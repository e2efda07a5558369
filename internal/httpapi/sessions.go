package httpapi

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/internal/apierror"
	"github.com/claudegateway/openai-bridge/internal/session"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func (s *Server) handleCreateSession(c *gin.Context) {
	var body wire.CreateSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apierror.Write(c, apierror.Validation("invalid_request_body", err.Error(), "body"))
		return
	}

	sess := s.sessions.Create(body.SystemPrompt, body.Model, body.MaxTurns)
	c.JSON(http.StatusCreated, wire.FromDomainSession(sess))
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.sessions.List()
	out := make([]wire.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, wire.FromDomainSession(sess))
	}
	c.JSON(http.StatusOK, wire.SessionListResponse{Sessions: out, Total: len(out)})
}

func (s *Server) handleSessionStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.Stats())
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.FromDomainSession(sess))
}

func (s *Server) handlePatchSession(c *gin.Context) {
	var body wire.PatchSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apierror.Write(c, apierror.Validation("invalid_request_body", err.Error(), "body"))
		return
	}

	sess, err := s.sessions.Update(c.Param("id"), body.SystemPrompt, body.MaxTurns)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.FromDomainSession(sess))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.DeleteSessionResponse{Message: "session deleted"})
}

func (s *Server) handleAppendMessages(c *gin.Context) {
	var body wire.AppendMessagesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apierror.Write(c, apierror.Validation("invalid_request_body", err.Error(), "body"))
		return
	}

	msgs := make([]domain.Message, 0, len(body.Messages))
	for _, m := range body.Messages {
		msgs = append(msgs, m.ToDomain())
	}

	s.sessions.GetOrCreate(c.Param("id"))
	sess, err := s.sessions.Append(c.Param("id"), msgs...)
	if err != nil {
		writeSessionError(c, err)
		return
	}

	resp := wire.AppendMessagesResponse{
		SessionID:    sess.ID,
		MessageCount: sess.MessageCount(),
		Messages:     make([]wire.Message, 0, len(sess.Messages)),
	}
	for _, m := range sess.Messages {
		resp.Messages = append(resp.Messages, wire.FromDomain(m))
	}
	c.JSON(http.StatusOK, resp)
}

// writeSessionError maps session.ErrNotFound to the gateway's not_found_error
// kind; any other error is treated as internal, per apierror.AsError's
// default.
func writeSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		apierror.Write(c, apierror.New(apierror.KindNotFound, "session_not_found", "session not found"))
		return
	}
	apierror.Write(c, err)
}

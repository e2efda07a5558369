package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/internal/apierror"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func (s *Server) handleListModels(c *gin.Context) {
	withCaps := c.Query("capabilities") == "true"
	withMeta := c.Query("metadata") == "true"

	descriptors := s.models.List()
	data := make([]wire.ModelInfo, 0, len(descriptors))
	for _, d := range descriptors {
		data = append(data, toModelInfo(d, withCaps, withMeta))
	}
	c.JSON(http.StatusOK, wire.ModelListResponse{Object: "list", Data: data})
}

func (s *Server) handleGetModel(c *gin.Context) {
	id := c.Param("id")
	desc, ok := s.models.Resolve(id)
	if !ok {
		result := s.models.Validate(id)
		apierror.Write(c, apierror.ModelNotFound(id, result.Suggestions, result.Available))
		return
	}

	withCaps := c.Query("capabilities") == "true"
	withMeta := c.Query("metadata") == "true"
	c.JSON(http.StatusOK, toModelInfo(*desc, withCaps, withMeta))
}

func (s *Server) handleValidateModel(c *gin.Context) {
	var body struct {
		Model string `json:"model" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierror.Write(c, apierror.Validation("invalid_request_body", err.Error(), "model"))
		return
	}

	start := time.Now()
	result := s.models.Validate(body.Model)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0

	resp := wire.ModelValidateResponse{
		Valid:            result.Valid,
		Model:            body.Model,
		Suggestions:      result.Suggestions,
		AlternativeModels: result.Available,
		ValidationTimeMs: elapsedMs,
	}
	if !result.Valid {
		resp.Errors = []string{"unknown model: " + body.Model}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModelCapabilities(c *gin.Context) {
	id := c.Param("id")
	start := time.Now()
	desc, ok := s.models.Resolve(id)
	if !ok {
		result := s.models.Validate(id)
		apierror.Write(c, apierror.ModelNotFound(id, result.Suggestions, result.Available))
		return
	}
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0

	c.JSON(http.StatusOK, wire.ModelCapabilitiesResponse{
		Model:        desc.ID,
		Capabilities: desc.Capabilities,
		LookupTimeMs: elapsedMs,
	})
}

func toModelInfo(d domain.ModelDescriptor, withCaps, withMeta bool) wire.ModelInfo {
	info := wire.ModelInfo{
		ID:      d.ID,
		Object:  "model",
		OwnedBy: "anthropic",
		Aliases: d.Aliases,
	}
	if withCaps {
		caps := d.Capabilities
		info.Capabilities = &caps
	}
	if withMeta {
		meta := d.Metadata
		info.Metadata = &meta
	}
	return info
}

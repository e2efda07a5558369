package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claudegateway/openai-bridge/internal/claude"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

func TestHandleListModels_OmitsCapabilitiesByDefault(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.ModelListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Nil(t, resp.Data[0].Capabilities)
}

func TestHandleListModels_IncludesCapabilitiesWhenRequested(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/models?capabilities=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp wire.ModelListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data[0].Capabilities)
	require.True(t, resp.Data[0].Capabilities.Streaming)
}

func TestHandleGetModel_UnknownIDReturnsSuggestions(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/models/claude-test-modle", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "claude-test-model")
}

func TestHandleValidateModel_ValidModelReturnsTrue(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	body, _ := json.Marshal(map[string]string{"model": "test"})
	req := httptest.NewRequest(http.MethodPost, "/v1/models/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.ModelValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
}

func TestHandleModelCapabilities_ReturnsDescriptorCapabilities(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/models/claude-test-model/capabilities", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.ModelCapabilitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Capabilities.Tools)
}

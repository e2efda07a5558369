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

func TestHandleCreateSession_ReturnsSessionID(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	body, _ := json.Marshal(wire.CreateSessionRequest{Model: "claude-test-model"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp wire.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
}

func TestHandleGetSession_UnknownIDReturnsNotFound(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePatchSession_AppliesSystemPromptEdit(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")
	sess := sessions.Create("", "claude-test-model", 5)

	newPrompt := "be terse"
	body, _ := json.Marshal(wire.PatchSessionRequest{SystemPrompt: &newPrompt})
	req := httptest.NewRequest(http.MethodPatch, "/v1/sessions/"+sess.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "be terse", resp.SystemPrompt)
}

func TestHandleDeleteSession_SecondDeleteReturnsNotFound(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")
	sess := sessions.Create("", "claude-test-model", 5)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestHandleDeleteSession_UnknownIDReturnsNotFound(t *testing.T) {
	router, _ := newTestRouter(t, &claude.FakeClient{}, "")

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAppendMessages_GrowsSessionHistory(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")
	sess := sessions.Create("", "claude-test-model", 5)

	body, _ := json.Marshal(wire.AppendMessagesRequest{
		Messages: []wire.Message{{Role: "user", Content: "hi"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.AppendMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.MessageCount)
}

func TestHandleAppendMessages_CreatesSessionWhenAbsent(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")

	body, _ := json.Marshal(wire.AppendMessagesRequest{
		Messages: []wire.Message{{Role: "user", Content: "hi"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/brand-new-id/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.AppendMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "brand-new-id", resp.SessionID)
	require.Equal(t, 1, resp.MessageCount)

	_, err := sessions.Get("brand-new-id")
	require.NoError(t, err)
}

func TestHandleListSessions_ReflectsStoreContents(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")
	sessions.Create("", "claude-test-model", 5)
	sessions.Create("", "claude-test-model", 5)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.SessionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
}

func TestHandleSessionStats_ReportsActiveCount(t *testing.T) {
	router, sessions := newTestRouter(t, &claude.FakeClient{}, "")
	sessions.Create("", "claude-test-model", 5)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"active_sessions":1`)
}

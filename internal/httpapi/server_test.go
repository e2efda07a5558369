package httpapi

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/claudegateway/openai-bridge/internal/authresolver"
	"github.com/claudegateway/openai-bridge/internal/claude"
	"github.com/claudegateway/openai-bridge/internal/completion"
	"github.com/claudegateway/openai-bridge/internal/config"
	"github.com/claudegateway/openai-bridge/internal/modelsregistry"
	"github.com/claudegateway/openai-bridge/internal/observability"
	"github.com/claudegateway/openai-bridge/internal/session"
	domain "github.com/claudegateway/openai-bridge/model"
)

func newTestRegistry(t *testing.T) *modelsregistry.Registry {
	t.Helper()
	registry, err := modelsregistry.FromDescriptors([]domain.ModelDescriptor{
		{
			ID:      "claude-test-model",
			Aliases: []string{"test"},
			Capabilities: domain.Capabilities{
				Streaming: true, FunctionCalling: true, Tools: true,
			},
			Metadata: domain.ModelMetadata{Description: "test model"},
		},
	})
	require.NoError(t, err)
	return registry
}

func newTestRouter(t *testing.T, client *claude.FakeClient, apiKey string) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{APIKey: apiKey, AllowedOrigins: []string{"*"}}
	models := newTestRegistry(t)
	sessions := session.NewStore(time.Hour, time.Hour, 10)
	auth := authresolver.NewResolver(cfg, client)

	svc, err := completion.NewService(client, sessions, models, auth, 0)
	require.NoError(t, err)

	hooks := observability.New()
	return NewRouter(cfg, svc, sessions, models, auth, hooks), sessions
}

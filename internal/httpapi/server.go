package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/internal/authresolver"
	"github.com/claudegateway/openai-bridge/internal/completion"
	"github.com/claudegateway/openai-bridge/internal/config"
	"github.com/claudegateway/openai-bridge/internal/logging"
	"github.com/claudegateway/openai-bridge/internal/modelsregistry"
	"github.com/claudegateway/openai-bridge/internal/observability"
	"github.com/claudegateway/openai-bridge/internal/session"
	"github.com/claudegateway/openai-bridge/middleware"
)

// Server holds every dependency the route handlers call into. One Server
// backs the whole process; gin.Context carries no state beyond the request.
type Server struct {
	cfg         config.Config
	completions *completion.Service
	sessions    *session.Store
	models      *modelsregistry.Registry
	auth        *authresolver.Resolver
	hooks       *observability.Hooks
}

// NewRouter builds the gin.Engine serving every route in spec §6.
func NewRouter(
	cfg config.Config,
	completions *completion.Service,
	sessions *session.Store,
	models *modelsregistry.Registry,
	auth *authresolver.Resolver,
	hooks *observability.Hooks,
) *gin.Engine {
	s := &Server{cfg: cfg, completions: completions, sessions: sessions, models: models, auth: auth, hooks: hooks}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logging.Middleware())
	r.Use(s.metricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/v1/chat/completions"})))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", middleware.APIKeyGuard(cfg.APIKey), gin.WrapH(hooks.MetricsHandler()))
	r.GET("/v1/auth/status", s.handleAuthStatus)

	v1 := r.Group("/v1")
	v1.Use(middleware.APIKeyGuard(cfg.APIKey))

	v1.POST("/chat/completions", s.handleChatCompletion)

	v1.POST("/sessions", s.handleCreateSession)
	v1.GET("/sessions", s.handleListSessions)
	v1.GET("/sessions/stats", s.handleSessionStats)
	v1.GET("/sessions/:id", s.handleGetSession)
	v1.PATCH("/sessions/:id", s.handlePatchSession)
	v1.DELETE("/sessions/:id", s.handleDeleteSession)
	v1.POST("/sessions/:id/messages", s.handleAppendMessages)

	v1.GET("/models", s.handleListModels)
	v1.GET("/models/:id", s.handleGetModel)
	v1.POST("/models/validate", s.handleValidateModel)
	v1.GET("/models/:id/capabilities", s.handleModelCapabilities)

	return r
}

// metricsMiddleware records every request's route, status, and duration
// into the Observability Hooks component, and opens the per-request trace
// span. No child span is opened for the Completion Service's Claude
// invocation.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := s.hooks.StartRequestSpan(c.Request.Context(), route)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		s.hooks.RecordRequest(route, strconv.Itoa(status), time.Since(start))

		var spanErr error
		if status >= http.StatusInternalServerError {
			spanErr = errUpstreamStatus
		}
		observability.EndSpan(span, spanErr)
	}
}

// errUpstreamStatus marks a request span as failed when the response status
// lands in the 5xx range; the span itself carries no further detail since
// apierror.Write already logged the real cause.
var errUpstreamStatus = errors.New("request completed with server error status")

func (s *Server) logger(c *gin.Context) *zap.Logger { return logging.FromContext(c) }

func errField(err error) zap.Field { return zap.Error(err) }

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Package logging owns the gateway's structured logger: a single
// process-level *zap.Logger at startup, plus a per-request child logger
// carried on the gin context so every handler and middleware logs through
// the same sink with the same request_id field attached.
package logging

import (
	"github.com/Laisky/zap"
	"github.com/Laisky/zap/zapcore"
	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/common/helper"
)

const contextKey = "gateway.logger"

// Logger is the process-level logger, set by Init at startup. It is never
// nil; before Init runs it is a no-op sink so package init order never
// panics on a stray log call.
var Logger = zap.NewNop()

// Init builds the process logger. level is any zapcore.Level string
// ("debug", "info", "warn", "error"); json selects the production JSON
// encoder over the human-readable console encoder.
func Init(level string, json bool) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if !json {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

// Middleware attaches a request-scoped child logger to the gin context,
// tagged with the request id set by the upstream request-id middleware.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		scoped := Logger.With(
			zap.String("request_id", c.GetString(helper.RequestIdKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(contextKey, scoped)
		c.Next()
	}
}

// FromContext returns the request-scoped logger, or the process logger if
// none was attached.
func FromContext(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(contextKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return Logger
}

// Package authresolver determines which Claude backend this process can
// authenticate against and produces the environment overlay the Claude
// Runtime Client merges into its subprocess invocation. It never makes a
// network call: every provider check is a local env/file read, matching
// spec's "the resolver... never contacts a network" constraint.
package authresolver

import (
	"context"
	"os"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/claudegateway/openai-bridge/internal/claude"
	"github.com/claudegateway/openai-bridge/internal/config"
	"github.com/claudegateway/openai-bridge/model"
)

// ClaudeVerifier is the subset of claude.Client the resolver depends on,
// satisfied by both the real client and internal/claude.FakeClient in tests.
type ClaudeVerifier interface {
	Verify(ctx context.Context) claude.VerifyResult
}

// Resolver computes and caches an AuthState for the process lifetime.
type Resolver struct {
	cfg      config.Config
	verifier ClaudeVerifier

	mu     sync.Mutex
	cached *model.AuthState
}

// NewResolver builds a Resolver over the given config and Claude verifier.
func NewResolver(cfg config.Config, verifier ClaudeVerifier) *Resolver {
	return &Resolver{cfg: cfg, verifier: verifier}
}

// Resolve returns the cached AuthState, computing it on first call.
func (r *Resolver) Resolve(ctx context.Context) model.AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == nil {
		state := r.compute(ctx)
		r.cached = &state
	}
	return *r.cached
}

// Refresh forces recomputation of the AuthState, bypassing the cache.
func (r *Resolver) Refresh(ctx context.Context) model.AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.compute(ctx)
	r.cached = &state
	return state
}

func (r *Resolver) compute(ctx context.Context) model.AuthState {
	state := model.AuthState{
		APIKeyProtected: r.cfg.APIKey != "",
		EnvOverlay:      map[string]string{},
	}

	anthropicKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	state.AnthropicConfigured = anthropicKey != ""

	state.BedrockConfigured = bedrockConfigured(ctx)
	state.VertexConfigured = vertexConfigured()

	verifyResult := r.verifier.Verify(ctx)
	state.ClaudeCLIAvailable = verifyResult.Available

	switch {
	case state.AnthropicConfigured:
		state.Authenticated = true
		state.Method = model.AuthAnthropic
		state.EnvOverlay["ANTHROPIC_API_KEY"] = anthropicKey

	case state.BedrockConfigured:
		state.Authenticated = true
		state.Method = model.AuthBedrock
		state.EnvOverlay["CLAUDE_CODE_USE_BEDROCK"] = "1"

	case state.VertexConfigured:
		state.Authenticated = true
		state.Method = model.AuthVertex
		state.EnvOverlay["CLAUDE_CODE_USE_VERTEX"] = "1"

	case state.ClaudeCLIAvailable && verifyResult.Authenticated:
		state.Authenticated = true
		state.Method = model.AuthClaudeCLI

	default:
		state.Method = model.AuthNone
		state.Errors = collectSkipReasons(state, verifyResult)
	}

	return state
}

// bedrockConfigured reports whether CLAUDE_CODE_USE_BEDROCK is set and AWS
// credentials are present either in the environment or in a local shared
// config/credentials file. Both checks are local: NewStaticCredentialsProvider
// wraps the literal env values with no I/O of its own, and
// LoadSharedConfigProfile only ever reads ~/.aws/{config,credentials} (or
// AWS_CONFIG_FILE/AWS_SHARED_CREDENTIALS_FILE) — neither path can reach the
// network, which is the guarantee this component needs.
func bedrockConfigured(ctx context.Context) bool {
	if !truthyEnv("CLAUDE_CODE_USE_BEDROCK") {
		return false
	}
	if envCredentialsPresent(ctx) {
		return true
	}
	return sharedProfileCredentialsPresent(ctx)
}

func envCredentialsPresent(ctx context.Context) bool {
	provider := credentials.NewStaticCredentialsProvider(
		os.Getenv("AWS_ACCESS_KEY_ID"),
		os.Getenv("AWS_SECRET_ACCESS_KEY"),
		os.Getenv("AWS_SESSION_TOKEN"),
	)
	creds, err := provider.Retrieve(ctx)
	return err == nil && creds.HasKeys()
}

func sharedProfileCredentialsPresent(ctx context.Context) bool {
	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = "default"
	}
	cfg, err := awsconfig.LoadSharedConfigProfile(ctx, profile)
	if err != nil {
		return false
	}
	return cfg.Credentials.HasKeys()
}

// vertexConfigured reports whether CLAUDE_CODE_USE_VERTEX is set and the
// credentials file it names exists and is readable. os.Stat and os.Open are
// local filesystem checks, not network calls.
func vertexConfigured() bool {
	if !truthyEnv("CLAUDE_CODE_USE_VERTEX") {
		return false
	}
	path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func truthyEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

func collectSkipReasons(state model.AuthState, verify claude.VerifyResult) []string {
	reasons := []string{
		"anthropic: ANTHROPIC_API_KEY not set",
		"bedrock: CLAUDE_CODE_USE_BEDROCK not set or AWS credentials not present",
		"vertex: CLAUDE_CODE_USE_VERTEX not set or GOOGLE_APPLICATION_CREDENTIALS unreadable",
	}
	if verify.Error != "" {
		reasons = append(reasons, "claude-cli: "+verify.Error)
	} else if !verify.Authenticated {
		reasons = append(reasons, "claude-cli: not authenticated")
	}
	return reasons
}

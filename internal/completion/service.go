// Package completion orchestrates one user-visible chat completion request:
// session lookup, prompt construction, driving the Claude runtime to
// exhaustion, and assembling the OpenAI-shaped result — either as a single
// response or as a sequence of SSE chunks.
package completion

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/claudegateway/openai-bridge/internal/adapter"
	"github.com/claudegateway/openai-bridge/internal/apierror"
	"github.com/claudegateway/openai-bridge/internal/claude"
	"github.com/claudegateway/openai-bridge/internal/logging"
	"github.com/claudegateway/openai-bridge/internal/modelsregistry"
	domain "github.com/claudegateway/openai-bridge/model"
	wire "github.com/claudegateway/openai-bridge/relay/model"
)

// ClaudeRunner is the subset of claude.Client the service depends on,
// satisfied by both the real client and claude.FakeClient in tests.
type ClaudeRunner interface {
	RunCompletion(ctx context.Context, prompt claude.Prompt, opts claude.RunOptions) (claude.Stream, error)
}

// SessionStore is the subset of session.Store the service depends on.
type SessionStore interface {
	Process(messagesIn []domain.Message, sessionID *string) ([]domain.Message, *string, error)
	Get(id string) (*domain.Session, error)
	Append(id string, msgs ...domain.Message) (*domain.Session, error)
	SetClaudeSessionID(id, claudeSessionID string) error
}

// ModelResolver is the subset of modelsregistry.Registry the service
// depends on.
type ModelResolver interface {
	Resolve(idOrAlias string) (*domain.ModelDescriptor, bool)
	Validate(idOrAlias string) modelsregistry.ValidationResult
}

// AuthProvider is the subset of authresolver.Resolver the service depends
// on: it supplies the environment overlay a Claude invocation needs.
type AuthProvider interface {
	Resolve(ctx context.Context) domain.AuthState
}

// Service drives one completion end to end. One Service is shared by the
// whole process; each call spawns its own Claude child through the
// injected ClaudeRunner.
type Service struct {
	client    ClaudeRunner
	sessions  SessionStore
	models    ModelResolver
	auth      AuthProvider
	estimator *tokenEstimator
	timeout   time.Duration
}

// NewService builds a Service. timeout, if positive, bounds the wall-clock
// time of a single Claude invocation (spec §5's "configurable per-request
// timeout"); zero means no service-level deadline is imposed here.
func NewService(client ClaudeRunner, sessions SessionStore, models ModelResolver, auth AuthProvider, timeout time.Duration) (*Service, error) {
	estimator, err := newTokenEstimator()
	if err != nil {
		return nil, errors.Wrap(err, "build completion service")
	}
	return &Service{
		client:    client,
		sessions:  sessions,
		models:    models,
		auth:      auth,
		estimator: estimator,
		timeout:   timeout,
	}, nil
}

// Complete drives req to exhaustion and returns the single OpenAI
// chat.completion response. On success, when a session is in use, the
// assistant turn is appended and the upstream Claude session id recorded.
func (s *Service) Complete(ctx context.Context, req Request) (wire.CompletionResponse, error) {
	prompt, opts, sessionID, err := s.prepare(ctx, req)
	if err != nil {
		return wire.CompletionResponse{}, err
	}

	agg, err := s.runToCompletion(ctx, prompt, opts, nil)
	if err != nil {
		return wire.CompletionResponse{}, err
	}

	finishReason, err := agg.FinishReason()
	if err != nil {
		return wire.CompletionResponse{}, err
	}

	promptTokens, completionTokens, estimated := s.resolveUsage(agg, prompt.UserText, agg.Content())
	s.commit(sessionID, agg)

	return adapter.BuildResponse(
		"chatcmpl-"+uuid.NewString(), opts.Model, time.Now().Unix(),
		agg, finishReason, promptTokens, completionTokens, sessionID, estimated,
	), nil
}

// Stream drives req to exhaustion, invoking emit once per produced chunk in
// order, ending with the terminal usage-bearing chunk. It never emits
// "data: [DONE]\n\n" itself — that framing detail belongs to the HTTP
// Surface, which also owns flushing.
func (s *Service) Stream(ctx context.Context, req Request, emit func(wire.StreamChunk) error) error {
	prompt, opts, sessionID, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}

	id := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()
	roleSent := false

	onUpdate := func(update adapter.StreamUpdate) error {
		role := ""
		if !roleSent {
			role = "assistant"
			roleSent = true
		}
		return emit(adapter.BuildStreamChunk(id, opts.Model, created, 0, role, update))
	}

	agg, err := s.runToCompletion(ctx, prompt, opts, onUpdate)
	if err != nil {
		if roleSent {
			_ = emit(adapter.BuildErrorStreamChunk(id, opts.Model, created))
		}
		return err
	}

	finishReason, err := agg.FinishReason()
	if err != nil {
		_ = emit(adapter.BuildErrorStreamChunk(id, opts.Model, created))
		return err
	}

	promptTokens, completionTokens, _ := s.resolveUsage(agg, prompt.UserText, agg.Content())
	if err := emit(adapter.BuildFinalStreamChunk(id, opts.Model, created, finishReason, promptTokens, completionTokens)); err != nil {
		return err
	}

	s.commit(sessionID, agg)
	return nil
}

// prepare validates req, merges it into any named session, and assembles
// the Claude prompt and invocation options shared by Complete and Stream.
func (s *Service) prepare(ctx context.Context, req Request) (claude.Prompt, claude.RunOptions, *string, error) {
	err := req.validate(func(idOrAlias string) (bool, []string, []string) {
		if _, ok := s.models.Resolve(idOrAlias); ok {
			return true, nil, nil
		}
		result := s.models.Validate(idOrAlias)
		return false, result.Suggestions, result.Available
	})
	if err != nil {
		return claude.Prompt{}, claude.RunOptions{}, nil, err
	}

	mergedMessages, sessionID, err := s.sessions.Process(req.Messages, req.SessionID)
	if err != nil {
		return claude.Prompt{}, claude.RunOptions{}, nil, apierror.Wrap(apierror.KindInternal, "session_process_failed", "failed to process session", err)
	}

	prompt, err := adapter.BuildPrompt(mergedMessages, req.SystemPrompt, req.Tools, req.EnableTools)
	if err != nil {
		return claude.Prompt{}, claude.RunOptions{}, nil, err
	}

	descriptor, _ := s.models.Resolve(req.Model) // already confirmed resolvable by validate above
	canonicalModel := descriptor.ID

	var maxTurns int
	var resumeID string
	if sessionID != nil {
		if sess, err := s.sessions.Get(*sessionID); err == nil {
			maxTurns = sess.MaxTurns
			resumeID = sess.ClaudeSessionID
		}
	}

	authState := s.auth.Resolve(ctx)

	opts := claude.RunOptions{
		Model:           canonicalModel,
		MaxTurns:        maxTurns,
		ClaudeSessionID: resumeID,
		EnvOverlay:      authState.EnvOverlay,
	}
	return prompt, opts, sessionID, nil
}

// runToCompletion drives one invocation, transparently retrying once
// without --resume when the attempt failed before producing any visible
// output and the failure looks like an unknown-session error from the
// Claude CLI — the "fall back to full replay" behavior. The full message
// history is already what prompt carries on every call, resumed or not, so
// the retry only needs to drop the stale session id.
func (s *Service) runToCompletion(ctx context.Context, prompt claude.Prompt, opts claude.RunOptions, onUpdate func(adapter.StreamUpdate) error) (*adapter.Aggregator, error) {
	agg, err := s.drive(ctx, prompt, opts, onUpdate)
	if err != nil && opts.ClaudeSessionID != "" && agg != nil &&
		agg.Content() == "" && len(agg.ToolCalls()) == 0 && looksLikeUnknownSessionError(err) {
		retryOpts := opts
		retryOpts.ClaudeSessionID = ""
		agg, err = s.drive(ctx, prompt, retryOpts, onUpdate)
	}
	return agg, err
}

// drive spawns one Claude invocation and pumps its event stream into a
// fresh Aggregator, coordinating the stream reader with a context-cancel
// watcher so a client disconnect or deadline terminates the child promptly
// rather than waiting for the next internal buffer tick.
func (s *Service) drive(ctx context.Context, prompt claude.Prompt, opts claude.RunOptions, onUpdate func(adapter.StreamUpdate) error) (*adapter.Aggregator, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stream, err := s.client.RunCompletion(runCtx, prompt, opts)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindUpstream, "claude_spawn_failed", "failed to start claude runtime", err)
	}

	agg := adapter.NewAggregator()
	done := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		select {
		case <-runCtx.Done():
			_ = stream.Close()
			return runCtx.Err()
		case <-done:
			return nil
		}
	})
	g.Go(func() error {
		defer close(done)
		defer stream.Close()
		for {
			ev, recvErr := stream.Recv()
			if recvErr != nil {
				if errors.Is(recvErr, io.EOF) {
					return nil
				}
				return recvErr
			}
			if update := agg.Feed(ev); update != nil && onUpdate != nil {
				if emitErr := onUpdate(*update); emitErr != nil {
					return emitErr
				}
			}
		}
	})
	runErr := g.Wait()

	if runCtx.Err() != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return agg, apierror.Wrap(apierror.KindTimeout, "claude_timeout", "claude runtime call exceeded its deadline", runCtx.Err())
		}
		return agg, apierror.Wrap(apierror.KindUpstream, "client_disconnected", "request canceled before completion", runCtx.Err())
	}
	if runErr != nil {
		return agg, apierror.Wrap(apierror.KindUpstream, "claude_stream_error", "claude runtime stream failed", runErr)
	}
	if !agg.Finished() {
		return agg, apierror.New(apierror.KindUpstream, "claude_no_result", "claude runtime ended without a result event")
	}
	return agg, nil
}

// commit appends the assistant turn to sessionID's history and records the
// upstream Claude session id for the next turn's --resume. Failures here
// are logged, not propagated: the response has already been built and the
// client-visible outcome is a success.
func (s *Service) commit(sessionID *string, agg *adapter.Aggregator) {
	if sessionID == nil {
		return
	}
	assistantMsg := domain.Message{
		Role:      domain.RoleAssistant,
		Content:   agg.Content(),
		ToolCalls: toDomainToolCalls(agg.ToolCalls()),
	}
	if _, err := s.sessions.Append(*sessionID, assistantMsg); err != nil {
		logging.Logger.Warn("failed to append assistant turn to session", zap.String("session_id", *sessionID), zap.Error(err))
		return
	}
	if claudeSessionID := agg.ClaudeSessionID(); claudeSessionID != "" {
		if err := s.sessions.SetClaudeSessionID(*sessionID, claudeSessionID); err != nil {
			logging.Logger.Warn("failed to record claude session id", zap.String("session_id", *sessionID), zap.Error(err))
		}
	}
}

// resolveUsage prefers Claude's own reported usage; when the terminal event
// carried none, it falls back to a local tiktoken estimate over the
// rendered prompt and the assembled completion text.
func (s *Service) resolveUsage(agg *adapter.Aggregator, promptText, completionText string) (promptTokens, completionTokens int, estimated bool) {
	usage := agg.Usage()
	if usage.InputTokens > 0 || usage.OutputTokens > 0 {
		return usage.InputTokens, usage.OutputTokens, false
	}
	return s.estimator.Count(promptText), s.estimator.Count(completionText), true
}

func toDomainToolCalls(calls []wire.ResponseToolCall) []domain.ToolCall {
	out := make([]domain.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, domain.ToolCall{
			ID:   c.ID,
			Type: c.Type,
			Function: domain.ToolCallFunc{
				Name:      c.Function.Name,
				Arguments: c.Function.Arguments,
			},
		})
	}
	return out
}

// looksLikeUnknownSessionError is a heuristic: the Claude CLI's exact
// wording for a failed --resume isn't part of any stable contract, so this
// matches the phrasings observed in practice rather than a documented code.
func looksLikeUnknownSessionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"no conversation found", "session not found", "unknown session", "invalid session", "no session"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

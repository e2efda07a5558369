// Package claude owns discovery, invocation, and event parsing for the
// Claude CLI subprocess: the one external process this gateway drives.
package claude

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/claudegateway/openai-bridge/common/helper"
	"github.com/claudegateway/openai-bridge/internal/logging"
)

// VerifyResult reports whether the Claude CLI is usable and, if not, why.
type VerifyResult struct {
	Available     bool
	Version       string
	Authenticated bool
	Error         string
	Suggestion    string
}

// Prompt is the fully-rendered input to one run_completion call: a system
// prompt plus the user-turn text built by the Message Adapter.
type Prompt struct {
	SystemPrompt string
	UserText     string
}

// RunOptions parameterizes one invocation of the claude CLI.
type RunOptions struct {
	Model           string
	MaxTurns        int
	ClaudeSessionID string // non-empty resumes a prior claude-native session via --resume
	EnvOverlay      map[string]string
}

// Stream yields the events of one run_completion call, in order, until
// Recv returns io.EOF. It is not safe for concurrent use by multiple
// goroutines.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Client discovers and invokes the Claude CLI. One Client is shared by the
// whole process; each RunCompletion call spawns its own child.
type Client struct {
	discoverer *Discoverer
}

// NewClient builds a Client. binaryOverride, if non-empty, is tried before
// any other discovery strategy.
func NewClient(binaryOverride string) *Client {
	return &Client{discoverer: NewDiscoverer(binaryOverride)}
}

// Verify probes for the executable and a working invocation. It is cheap
// after the first call: the executable path is cached by the Discoverer.
func (c *Client) Verify(ctx context.Context) VerifyResult {
	path, err := c.discoverer.Resolve()
	if err != nil {
		return VerifyResult{
			Available:  false,
			Error:      err.Error(),
			Suggestion: "install the claude CLI and ensure it is on PATH, or set CLAUDE_COMMAND/CLAUDE_CLI_PATH",
		}
	}

	version, err := probe(ctx, path)
	if err != nil {
		return VerifyResult{
			Available:  true,
			Error:      err.Error(),
			Suggestion: "the claude binary was found but did not respond to --version; check its permissions and that it is not shadowed by a broken shim",
		}
	}

	return VerifyResult{
		Available:     true,
		Version:       version,
		Authenticated: true,
	}
}

// RunCompletion spawns the claude CLI and returns a Stream of its parsed
// events. The child inherits the process environment merged with
// opts.EnvOverlay (overlay wins on key collision). Cancelling ctx
// terminates the child.
func (c *Client) RunCompletion(ctx context.Context, prompt Prompt, opts RunOptions) (Stream, error) {
	path, err := c.discoverer.Resolve()
	if err != nil {
		return nil, errors.Wrap(err, "resolve claude binary")
	}

	args := buildArgs(prompt, opts)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = mergeEnv(os.Environ(), opts.EnvOverlay)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "open claude stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "open claude stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "open claude stderr")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "start claude")
	}

	s := &cliStream{
		cmd:    cmd,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}

	go drainStderr(stderr)
	go func() {
		defer stdin.Close()
		_, _ = io.WriteString(stdin, prompt.UserText)
	}()
	go s.run(ctx, stdout)

	return s, nil
}

// cliStream adapts one claude CLI invocation to the Stream interface.
type cliStream struct {
	cmd    *exec.Cmd
	events chan Event

	mu       sync.Mutex
	finalErr error
	closed   bool
	done     chan struct{}
}

// Recv returns the next event, or io.EOF once the stream is exhausted. If
// the child failed, its error is returned in place of io.EOF, on this and
// every later call.
func (s *cliStream) Recv() (Event, error) {
	ev, ok := <-s.events
	if !ok {
		s.mu.Lock()
		err := s.finalErr
		s.mu.Unlock()
		if err != nil {
			return Event{}, err
		}
		return Event{}, io.EOF
	}
	return ev, nil
}

// Close terminates the child process if it is still running.
func (s *cliStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return nil
}

// run scans stdout line by line, parses each frame, and pushes the
// resulting events until the process exits or parsing detects a framing
// loss, at which point it records the terminal error and closes the
// channel.
func (s *cliStream) run(ctx context.Context, stdout io.Reader) {
	defer close(s.events)

	scanner := bufio.NewScanner(stdout)
	helper.ConfigureScannerBuffer(scanner)

	sawResult := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		ev, ok, err := parseLine(line)
		if err != nil {
			s.setFinalErr(errors.Wrap(err, "parse claude output frame"))
			return
		}
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			s.setFinalErr(ctx.Err())
			return
		}
		if ev.Kind == EventResult {
			sawResult = true
		}
	}

	if err := scanner.Err(); err != nil {
		s.setFinalErr(errors.Wrap(err, "read claude output"))
		return
	}

	waitErr := s.cmd.Wait()
	if waitErr != nil {
		s.setFinalErr(errors.Wrap(waitErr, "claude exited with error"))
		return
	}
	if !sawResult {
		s.setFinalErr(errors.New("claude exited before emitting a result event"))
	}
}

func (s *cliStream) setFinalErr(err error) {
	s.mu.Lock()
	s.finalErr = err
	s.mu.Unlock()
}

func drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	helper.ConfigureScannerBuffer(scanner)
	for scanner.Scan() {
		logging.Logger.Debug("claude stderr", zap.String("line", scanner.Text()))
	}
}

func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	out = append(out, base...)
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}

func buildArgs(prompt Prompt, opts RunOptions) []string {
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--include-partial-messages",
		"--verbose",
		"--strict-mcp-config",
	}

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if prompt.SystemPrompt != "" {
		args = append(args, "--system-prompt", prompt.SystemPrompt)
	}
	if opts.ClaudeSessionID != "" {
		args = append(args, "--resume", opts.ClaudeSessionID)
	}

	return args
}

package claude

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
)

// defaultBinaryName is the expected Claude CLI binary name when no override
// and no well-known path match.
const defaultBinaryName = "claude"

// wellKnownPaths lists install locations the official installer and common
// package managers use, checked after the environment override and before
// a bare PATH search.
func wellKnownPaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{
		"/usr/local/bin/claude",
		"/opt/homebrew/bin/claude",
		"/usr/bin/claude",
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".claude", "local", "claude"),
			filepath.Join(home, ".local", "bin", "claude"),
		)
	}
	return paths
}

// Discoverer resolves the Claude CLI executable path once per process and
// caches the result. It is safe for concurrent use; the cached path is
// shared read-only after the first successful resolution.
type Discoverer struct {
	override string

	mu       sync.Mutex
	resolved string
	err      error
	done     bool
}

// NewDiscoverer builds a Discoverer. override, when non-empty, takes
// priority over every other resolution strategy and is used verbatim
// (CLAUDE_BINARY_PATH in this gateway's config, or CLAUDE_COMMAND /
// CLAUDE_CLI_PATH directly from the environment).
func NewDiscoverer(override string) *Discoverer {
	if override == "" {
		override = firstNonEmptyEnv("CLAUDE_COMMAND", "CLAUDE_CLI_PATH")
	}
	return &Discoverer{override: override}
}

// Resolve returns the cached executable path, probing for one on first
// call. Subsequent calls never touch the filesystem again, even if the
// binary is later removed.
func (d *Discoverer) Resolve() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return d.resolved, d.err
	}
	d.resolved, d.err = d.resolve()
	d.done = true
	return d.resolved, d.err
}

func (d *Discoverer) resolve() (string, error) {
	if d.override != "" {
		if path, err := exec.LookPath(d.override); err == nil {
			return path, nil
		}
		if info, err := os.Stat(d.override); err == nil && !info.IsDir() {
			return d.override, nil
		}
		return "", errors.Errorf("configured claude binary %q not found", d.override)
	}

	for _, candidate := range wellKnownPaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(defaultBinaryName); err == nil {
		return path, nil
	}

	return "", errors.New("claude CLI not found: set CLAUDE_COMMAND, CLAUDE_CLI_PATH, or install it on PATH")
}

func firstNonEmptyEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// probe runs `<path> --version` with a short timeout to confirm the
// resolved binary actually executes, not just that a file exists there.
func probe(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", errors.Wrap(err, "claude --version failed")
	}
	return trimTrailingNewline(string(out)), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

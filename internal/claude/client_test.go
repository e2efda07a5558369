package claude

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildArgs_MinimalOptions(t *testing.T) {
	t.Parallel()
	args := buildArgs(Prompt{UserText: "hi"}, RunOptions{})

	require.Contains(t, args, "--print")
	require.Contains(t, args, "--output-format")
	require.Contains(t, args, "stream-json")
	require.NotContains(t, args, "--model")
	require.NotContains(t, args, "--max-turns")
	require.NotContains(t, args, "--resume")
}

func TestBuildArgs_FullOptions(t *testing.T) {
	t.Parallel()
	args := buildArgs(
		Prompt{SystemPrompt: "be terse", UserText: "hi"},
		RunOptions{Model: "claude-sonnet-4", MaxTurns: 7, ClaudeSessionID: "native-123"},
	)

	requireConsecutive(t, args, "--model", "claude-sonnet-4")
	requireConsecutive(t, args, "--max-turns", "7")
	requireConsecutive(t, args, "--system-prompt", "be terse")
	requireConsecutive(t, args, "--resume", "native-123")
}

func requireConsecutive(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, a := range args {
		if a == flag {
			require.Less(t, i+1, len(args))
			require.Equal(t, value, args[i+1])
			return
		}
	}
	t.Fatalf("flag %q not found in args %v", flag, args)
}

func TestMergeEnv_OverlayWinsOnCollision(t *testing.T) {
	t.Parallel()
	base := []string{"FOO=base", "BAR=keep"}
	merged := mergeEnv(base, map[string]string{"FOO": "overlay"})

	require.Contains(t, merged, "BAR=keep")
	require.Contains(t, merged, "FOO=base")
	require.Contains(t, merged, "FOO=overlay")
}

func TestMergeEnv_EmptyOverlayReturnsBaseUnchanged(t *testing.T) {
	t.Parallel()
	base := []string{"FOO=base"}
	require.Equal(t, base, mergeEnv(base, nil))
}

func TestRunCompletion_StreamsScriptedFrames(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes assume a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-claude")
	script := "#!/bin/sh\n" +
		"cat <<'EOF'\n" +
		`{"type":"system","subtype":"init","session_id":"s1","model":"m","tools":[]}` + "\n" +
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}}` + "\n" +
		`{"type":"result","subtype":"success","is_error":false,"result":"ok","usage":{"input_tokens":1,"output_tokens":1}}` + "\n" +
		"EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	client := NewClient(path)
	stream, err := client.RunCompletion(context.Background(), Prompt{UserText: "hello"}, RunOptions{})
	require.NoError(t, err)
	defer stream.Close()

	var kinds []EventKind
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
	}

	require.Equal(t, []EventKind{EventSystemInit, EventAssistantDelta, EventResult}, kinds)
}

func TestRunCompletion_NonexistentBinaryErrors(t *testing.T) {
	t.Parallel()
	client := NewClient("/definitely/not/a/real/claude/binary")
	_, err := client.RunCompletion(context.Background(), Prompt{}, RunOptions{})
	require.Error(t, err)
}

package claude

import (
	"context"
	"io"
	"sync"
)

// FakeClient is a deterministic, in-process stand-in for Client. It never
// spawns a subprocess; RunCompletion plays back a scripted event sequence
// chosen by Script, and Verify returns a fixed VerifyResult. Tests for
// packages built on top of this one (the completion service, the HTTP
// handlers) construct a FakeClient instead of driving a real Claude CLI.
type FakeClient struct {
	mu sync.Mutex

	VerifyResult VerifyResult

	// Script, if set, is called once per RunCompletion to produce that
	// call's event sequence and terminal error. A nil Script yields a
	// single EventResult success frame with zero usage.
	Script func(prompt Prompt, opts RunOptions) ([]Event, error)

	// Calls records every RunCompletion invocation in order, for
	// assertions on what the adapter actually sent downstream.
	Calls []RunOptions
}

var _ interface {
	Verify(ctx context.Context) VerifyResult
	RunCompletion(ctx context.Context, prompt Prompt, opts RunOptions) (Stream, error)
} = (*FakeClient)(nil)

// Verify returns the configured VerifyResult.
func (f *FakeClient) Verify(ctx context.Context) VerifyResult {
	return f.VerifyResult
}

// RunCompletion records the call and returns a fakeStream that replays the
// scripted events.
func (f *FakeClient) RunCompletion(ctx context.Context, prompt Prompt, opts RunOptions) (Stream, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, opts)
	f.mu.Unlock()

	events, err := []Event{{Kind: EventResult, StopReason: "success"}}, error(nil)
	if f.Script != nil {
		events, err = f.Script(prompt, opts)
	}

	return &fakeStream{events: events, err: err}, nil
}

// fakeStream replays a fixed slice of events, returning the configured
// terminal error (or io.EOF) once exhausted.
type fakeStream struct {
	mu     sync.Mutex
	events []Event
	pos    int
	err    error
	closed bool
}

func (s *fakeStream) Recv() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Event{}, io.EOF
	}
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		return ev, nil
	}
	if s.err != nil {
		return Event{}, s.err
	}
	return Event{}, io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Package session implements the gateway's in-memory session store: TTL-scoped
// conversation histories, keyed by an opaque id, reaped in the background.
// There is no persistence layer and no cross-process sharing — a restart
// loses every session, by design.
package session

import (
	"sort"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	gocache "github.com/patrickmn/go-cache"

	"github.com/claudegateway/openai-bridge/model"
)

// ErrNotFound is returned when a session id is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Store is a TTL-scoped, in-memory session registry. All methods are safe
// for concurrent use; the underlying go-cache instance owns its own locking
// and runs its own janitor goroutine to evict expired entries.
type Store struct {
	cache           *gocache.Cache
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxTurns        int
}

// NewStore builds a Store whose entries expire after ttl of inactivity
// (touch-on-access, matching go-cache's DefaultExpiration semantics) and are
// swept by a janitor every cleanupInterval. maxTurns is both the default and
// the ceiling for a session's MaxTurns (a smaller per-session value set via
// Create or Update is kept); the store itself does not limit how many
// messages a session holds.
func NewStore(ttl, cleanupInterval time.Duration, maxTurns int) *Store {
	return &Store{
		cache:           gocache.New(ttl, cleanupInterval),
		defaultTTL:      ttl,
		cleanupInterval: cleanupInterval,
		maxTurns:        maxTurns,
	}
}

// Create allocates a new session with a fresh id and stores it.
func (s *Store) Create(systemPrompt, modelName string, maxTurns int) *model.Session {
	now := time.Now()
	if maxTurns <= 0 || maxTurns > s.maxTurns {
		maxTurns = s.maxTurns
	}

	sess := &model.Session{
		ID:             "session_" + uuid.NewString(),
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.defaultTTL),
		SystemPrompt:   systemPrompt,
		Model:          modelName,
		MaxTurns:       maxTurns,
	}
	s.cache.Set(sess.ID, sess, gocache.DefaultExpiration)
	return snapshot(sess)
}

// GetOrCreate touches and returns the session for id if it exists and has
// not expired; otherwise it creates an empty one with that id.
func (s *Store) GetOrCreate(id string) *model.Session {
	if sess, err := s.touch(id); err == nil {
		return snapshot(sess)
	}

	now := time.Now()
	sess := &model.Session{
		ID:             id,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.defaultTTL),
		MaxTurns:       s.maxTurns,
	}
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return snapshot(sess)
}

// Process is the central helper used by the Completion Service: a nil
// sessionID makes the call stateless (messagesIn pass through unchanged,
// effective id is nil); otherwise messagesIn are appended to the named
// session and the full post-append history is returned with its id.
func (s *Store) Process(messagesIn []model.Message, sessionID *string) ([]model.Message, *string, error) {
	if sessionID == nil {
		return messagesIn, nil, nil
	}

	s.GetOrCreate(*sessionID)
	updated, err := s.Append(*sessionID, messagesIn...)
	if err != nil {
		return nil, nil, err
	}
	return updated.Messages, sessionID, nil
}

// Get returns a point-in-time copy of the session, touching its expiry.
// Callers never observe mutations made by a concurrent Append because the
// returned value is always a deep copy.
func (s *Store) Get(id string) (*model.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

// Append adds messages to the session's history in order and returns the
// updated snapshot. Returns ErrNotFound if the session has expired or never
// existed.
func (s *Store) Append(id string, msgs ...model.Message) (*model.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	sess.Messages = append(sess.Messages, msgs...)
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return snapshot(sess), nil
}

// SetClaudeSessionID records the upstream Claude CLI session id this
// gateway session last resumed, so the next turn can pass it to --resume.
// The full message history is still sent in the prompt on every turn.
func (s *Store) SetClaudeSessionID(id, claudeSessionID string) error {
	sess, err := s.touch(id)
	if err != nil {
		return err
	}
	sess.ClaudeSessionID = claudeSessionID
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return nil
}

// Update applies a partial edit to an existing session's system_prompt
// and/or max_turns, leaving any nil field untouched. Returns ErrNotFound if
// the session has expired or never existed.
func (s *Store) Update(id string, systemPrompt *string, maxTurns *int) (*model.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	if systemPrompt != nil {
		sess.SystemPrompt = *systemPrompt
	}
	if maxTurns != nil {
		capped := *maxTurns
		if capped <= 0 || capped > s.maxTurns {
			capped = s.maxTurns
		}
		sess.MaxTurns = capped
	}
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return snapshot(sess), nil
}

// Delete removes a session. Returns ErrNotFound if the session has expired
// or never existed.
func (s *Store) Delete(id string) error {
	if _, ok := s.cache.Get(id); !ok {
		return errors.Wrapf(ErrNotFound, "session %q", id)
	}
	s.cache.Delete(id)
	return nil
}

// List returns a snapshot of every non-expired session, ordered by
// CreatedAt ascending.
func (s *Store) List() []*model.Session {
	items := s.cache.Items()
	out := make([]*model.Session, 0, len(items))
	for _, item := range items {
		sess, ok := item.Object.(*model.Session)
		if !ok {
			continue
		}
		out = append(out, snapshot(sess))
	}
	sortByCreatedAt(out)
	return out
}

// Stats summarizes the store's current occupancy. ExpiredSessions is
// always 0: go-cache's Items() skips entries past their expiration, so an
// expired entry that the janitor has not yet swept is never counted.
func (s *Store) Stats() model.Stats {
	sessions := s.List()
	total := 0
	for _, sess := range sessions {
		total += sess.MessageCount()
	}

	avg := 0.0
	if len(sessions) > 0 {
		avg = float64(total) / float64(len(sessions))
	}

	return model.Stats{
		ActiveSessions:         len(sessions),
		ExpiredSessions:        0,
		TotalMessages:          total,
		AverageMessageCount:    avg,
		CleanupIntervalMinutes: s.cleanupInterval.Minutes(),
		DefaultTTLHours:        s.defaultTTL.Hours(),
	}
}

// touch fetches the live session pointer from the cache and refreshes its
// expiry and LastAccessedAt in place. The returned pointer is the cache's
// own value and must not escape this package uncopied.
func (s *Store) touch(id string) (*model.Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "session %q", id)
	}
	sess, ok := v.(*model.Session)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "session %q", id)
	}

	sess.LastAccessedAt = time.Now()
	sess.ExpiresAt = sess.LastAccessedAt.Add(s.defaultTTL)
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return sess, nil
}

// snapshot deep-copies a session so a caller's subsequent mutation (or a
// concurrent Append racing it) can never be observed by another caller.
func snapshot(sess *model.Session) *model.Session {
	var out model.Session
	if err := copier.CopyWithOption(&out, sess, copier.Option{DeepCopy: true}); err != nil {
		// CopyWithOption only fails on fundamentally mismatched types, which
		// cannot happen between two *model.Session values.
		panic(errors.Wrap(err, "copy session snapshot"))
	}
	return &out
}

func sortByCreatedAt(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
}

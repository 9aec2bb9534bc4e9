package call

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishnusiva/callmate/backend/internal/model/call"
)

// session pairs a transcript with its own mutex so turns for one caller
// serialize without blocking other callers. The outer store lock only
// guards the map itself.
type session struct {
	mu        sync.Mutex
	startedAt time.Time
	turns     []call.Turn
}

// Store tracks active call sessions in process memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewStore bootstraps an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// Open creates the session for userID, or resets its transcript if one
// already exists. Re-opening is an idempotent overwrite.
func (s *Store) Open(userID string) {
	s.mu.Lock()
	s.sessions[userID] = &session{
		startedAt: time.Now().UTC(),
		turns:     make([]call.Turn, 0, 8),
	}
	s.mu.Unlock()
}

// Close removes the session if present and reports whether one was
// removed. Closing an unknown id is a no-op.
func (s *Store) Close(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	return ok
}

// Get returns a snapshot of the session for userID. Same-id mutation
// serializes through Acquire, so Get is for callers outside an active
// turn (handlers, tests); within a turn read through Lease.Turns.
func (s *Store) Get(userID string) (call.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return call.Session{}, ErrSessionNotFound
	}

	turns := make([]call.Turn, len(entry.turns))
	copy(turns, entry.turns)
	return call.Session{UserID: userID, StartedAt: entry.startedAt, Turns: turns}, nil
}

// Append records a completed turn against the leased session. It fails
// if the session was closed or reset (re-opened) since the lease was
// taken, so neither an ended call nor a fresh one is ever polluted by a
// turn that started against the old transcript.
func (s *Store) Append(l *Lease, turn call.Turn) error {
	s.mu.RLock()
	current, ok := s.sessions[l.userID]
	s.mu.RUnlock()
	if !ok || current != l.entry {
		return ErrSessionNotFound
	}

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	l.entry.turns = append(l.entry.turns, turn)
	return nil
}

// Lease pins the session entry a turn is working against and holds its
// mutex until Release. Open and Close replace or drop the map entry
// rather than mutating it, so a lease taken before either still points
// at the superseded entry and Append rejects it.
type Lease struct {
	userID string
	entry  *session
}

// Acquire locks the session for userID for the duration of one turn.
// Turns for the same id serialize in arrival order; distinct ids never
// contend.
func (s *Store) Acquire(userID string) (*Lease, error) {
	s.mu.RLock()
	entry, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	return &Lease{userID: userID, entry: entry}, nil
}

// Release unlocks the leased session.
func (l *Lease) Release() {
	l.entry.mu.Unlock()
}

// Turns returns a snapshot of the leased transcript.
func (l *Lease) Turns() []call.Turn {
	turns := make([]call.Turn, len(l.entry.turns))
	copy(turns, l.entry.turns)
	return turns
}

// Len reports the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

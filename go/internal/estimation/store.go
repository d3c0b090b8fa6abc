package estimation

import "time"

// Store holds all live sessions for the process. It is not internally
// synchronized; the App serializes every read-modify-write behind its
// own mutex.
type Store struct {
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for the given id, creating a fresh
// waiting-phase session if none exists.
func (s *Store) GetOrCreate(id string, now time.Time) *Session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &Session{
		ID:           id,
		Phase:        PhaseWaiting,
		Participants: make(map[string]*Participant),
		Votes:        make(map[string]Size),
		CreatedAt:    now,
	}
	s.sessions[id] = sess
	return sess
}

// Get returns the session for the given id, if present.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	delete(s.sessions, id)
}

// All returns the underlying session map for iteration. Callers must
// hold the App mutex for the duration of the walk.
func (s *Store) All() map[string]*Session {
	return s.sessions
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

package estimation

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultRoundLength is how long a voting round stays open before the
// deadline closes it and reveals the results.
const DefaultRoundLength = 20 * time.Second

// Broadcaster delivers an event to every connection currently joined to
// a session's room. Implemented by the websocket gateway.
type Broadcaster interface {
	Broadcast(sessionID string, event *Event)
}

// App is the event-processing core for estimation sessions. All inbound
// participant events and all deadline firings mutate the session store
// through App methods, serialized behind a single mutex. Malformed or
// late events degrade to no-ops; App methods never return errors to the
// originating connection.
type App struct {
	mu          sync.Mutex
	store       *Store
	broadcaster Broadcaster
	clock       clockwork.Clock
	roundLength time.Duration
}

// NewApp creates the session core. Use clockwork.NewRealClock() in
// production and a fake clock in tests.
func NewApp(broadcaster Broadcaster, clock clockwork.Clock, roundLength time.Duration) *App {
	if roundLength <= 0 {
		roundLength = DefaultRoundLength
	}
	return &App{
		store:       NewStore(),
		broadcaster: broadcaster,
		clock:       clock,
		roundLength: roundLength,
	}
}

// Join adds a connection to a session, creating the session on first
// use, and broadcasts the updated snapshot to the room.
func (a *App) Join(sessionID, connID, username string) {
	a.mu.Lock()
	sess := a.store.GetOrCreate(sessionID, a.clock.Now())
	sess.Participants[connID] = &Participant{
		ID:       connID,
		Username: username,
		JoinedAt: a.clock.Now(),
	}
	snap := publicView(sess)
	a.mu.Unlock()

	log.Info().
		Str("session_id", sessionID).
		Str("conn_id", connID).
		Str("username", username).
		Msg("participant joined session")

	a.broadcast(sessionID, EventSessionUpdated, snap)
}

// StartVoting begins a voting round for an existing session: the vote
// ledger and every participant's vote are cleared, the deadline is set,
// and a one-shot timer is armed to close the round. Requests against an
// unknown session are silently ignored. Starting from results phase
// behaves identically to starting from waiting.
func (a *App) StartVoting(sessionID string) {
	a.mu.Lock()
	sess, ok := a.store.Get(sessionID)
	if !ok {
		a.mu.Unlock()
		log.Debug().Str("session_id", sessionID).Msg("start-voting for unknown session ignored")
		return
	}

	sess.Phase = PhaseVoting
	sess.Votes = make(map[string]Size)
	for _, p := range sess.Participants {
		p.Vote = nil
	}
	endsAt := a.clock.Now().Add(a.roundLength)
	sess.VotingEndsAt = &endsAt
	snap := publicView(sess)
	a.mu.Unlock()

	log.Info().
		Str("session_id", sessionID).
		Time("ends_at", endsAt).
		Msg("voting round started")

	a.broadcast(sessionID, EventVotingStarted, VotingStartedPayload{
		Session: snap,
		EndsAt:  endsAt,
	})

	a.scheduleExpiry(sessionID, endsAt)
}

// SubmitVote records a vote for the current round. The last submitted
// value for a connection wins; there is no unvote. Votes against an
// unknown session, outside voting phase, or from a connection that is
// not a participant are silently ignored.
func (a *App) SubmitVote(sessionID, connID string, vote Size) {
	a.mu.Lock()
	sess, ok := a.store.Get(sessionID)
	if !ok || sess.Phase != PhaseVoting {
		a.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Str("conn_id", connID).
			Msg("vote outside an active round ignored")
		return
	}
	p, ok := sess.Participants[connID]
	if !ok {
		a.mu.Unlock()
		return
	}

	sess.Votes[connID] = vote
	v := vote
	p.Vote = &v
	snap := publicView(sess)
	a.mu.Unlock()

	log.Info().
		Str("session_id", sessionID).
		Str("conn_id", connID).
		Msg("vote recorded")

	a.broadcast(sessionID, EventVoteReceived, VoteReceivedPayload{
		UserID:  connID,
		Session: snap,
	})
}

// Disconnect removes a departing connection from every session it
// belongs to, deletes sessions left empty, and broadcasts updated
// snapshots to the survivors.
func (a *App) Disconnect(connID string) {
	type roomUpdate struct {
		sessionID string
		snap      Snapshot
	}

	a.mu.Lock()
	var updates []roomUpdate
	for id, sess := range a.store.All() {
		if _, ok := sess.Participants[connID]; !ok {
			continue
		}
		delete(sess.Participants, connID)
		delete(sess.Votes, connID)

		if len(sess.Participants) == 0 {
			a.store.Delete(id)
			log.Info().Str("session_id", id).Msg("last participant left, session deleted")
			continue
		}
		updates = append(updates, roomUpdate{sessionID: id, snap: publicView(sess)})
	}
	a.mu.Unlock()

	for _, u := range updates {
		log.Info().
			Str("session_id", u.sessionID).
			Str("conn_id", connID).
			Msg("participant left session")
		a.broadcast(u.sessionID, EventSessionUpdated, u.snap)
	}
}

// SessionCount reports how many sessions are live.
func (a *App) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Len()
}

// scheduleExpiry arms a one-shot timer that closes the round at the
// given deadline. Firing is fire-and-forget; staleness is detected at
// fire time rather than by cancelling timers.
func (a *App) scheduleExpiry(sessionID string, deadline time.Time) {
	timer := a.clock.NewTimer(deadline.Sub(a.clock.Now()))
	go func() {
		<-timer.Chan()
		a.endVoting(sessionID, deadline)
	}()
}

// endVoting performs the deadline-driven voting -> results transition.
// The session is re-read under the mutex: if it has been deleted, has
// already left voting phase, or its deadline no longer matches the one
// this timer was armed with (a newer round superseded it), the firing
// is discarded.
func (a *App) endVoting(sessionID string, deadline time.Time) {
	a.mu.Lock()
	sess, ok := a.store.Get(sessionID)
	if !ok || sess.Phase != PhaseVoting || sess.VotingEndsAt == nil || !sess.VotingEndsAt.Equal(deadline) {
		a.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Time("deadline", deadline).
			Msg("stale round timer discarded")
		return
	}

	sess.Phase = PhaseResults
	sess.VotingEndsAt = nil
	snap := publicView(sess)
	a.mu.Unlock()

	log.Info().
		Str("session_id", sessionID).
		Int("votes", snap.Results.TotalVotes).
		Msg("voting round ended")

	a.broadcast(sessionID, EventVotingEnded, snap)
}

// broadcast wraps a payload in the event envelope and hands it to the
// gateway. A payload that fails to marshal is dropped with a log line;
// nothing in the core depends on delivery.
func (a *App) broadcast(sessionID string, eventType EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("event_type", string(eventType)).
			Msg("failed to marshal event payload")
		return
	}

	a.broadcaster.Broadcast(sessionID, &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: a.clock.Now(),
		Data:      data,
	})
}

package estimation

import (
	"encoding/json"
	"time"
)

// EventType identifies an outbound session event.
type EventType string

const (
	EventSessionUpdated EventType = "session-updated"
	EventVotingStarted  EventType = "voting-started"
	EventVoteReceived   EventType = "vote-received"
	EventVotingEnded    EventType = "voting-ended"
)

// Event is the envelope broadcast to every member of a session's room.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// VotingStartedPayload carries the round-start snapshot and the
// absolute deadline clients count down toward.
type VotingStartedPayload struct {
	Session Snapshot  `json:"session"`
	EndsAt  time.Time `json:"ends_at"`
}

// VoteReceivedPayload identifies who just voted alongside the redacted
// session snapshot.
type VoteReceivedPayload struct {
	UserID  string   `json:"user_id"`
	Session Snapshot `json:"session"`
}

// session-updated and voting-ended events carry a bare Snapshot.

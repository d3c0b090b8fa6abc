package gateway

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies an inbound client message.
type MessageType string

const (
	MessageJoinSession MessageType = "join-session"
	MessageStartVoting MessageType = "start-voting"
	MessageSubmitVote  MessageType = "submit-vote"
)

// ClientMessage is the JSON envelope clients send over the WebSocket.
// Fields beyond the type are required per message type; unused fields
// are omitted.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Username  string      `json:"username,omitempty"`
	Vote      string      `json:"vote,omitempty"`
}

// parseClientMessage decodes and validates an inbound message.
func parseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode client message: %w", err)
	}

	if msg.SessionID == "" {
		return nil, fmt.Errorf("message type %q missing session_id", msg.Type)
	}

	switch msg.Type {
	case MessageJoinSession:
		if msg.Username == "" {
			return nil, fmt.Errorf("join-session missing username")
		}
	case MessageStartVoting:
	case MessageSubmitVote:
		if msg.Vote == "" {
			return nil, fmt.Errorf("submit-vote missing vote")
		}
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}

	return &msg, nil
}

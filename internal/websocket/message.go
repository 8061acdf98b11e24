package websocket

import (
	"encoding/json"
	"time"

	"lexisync/internal/domain"
)

type MessageType string

const (
	TypeStateChanged  MessageType = "state_changed"
	TypeRemoteChanged MessageType = "remote_changed"
	TypeMergeRequired MessageType = "merge_required"
	TypeAuthCompleted MessageType = "auth_completed"
	TypePing          MessageType = "ping"
	TypePong          MessageType = "pong"
)

// Message is a frame pushed to the UI layer. The UI treats every frame as
// an invalidation signal and re-pulls state over the HTTP API.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type StateChangedPayload struct {
	State     domain.SyncState        `json:"state"`
	Direction domain.PendingDirection `json:"direction"`
}

type RemoteChangedPayload struct {
	Hash string `json:"hash"`
}

type MergeRequiredPayload struct {
	ConflictCount int `json:"conflict_count"`
}

type AuthCompletedPayload struct {
	Phase    domain.AuthPhase `json:"phase"`
	Username string           `json:"username,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

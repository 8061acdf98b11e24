package livesync

import "encoding/json"

type MessageType string

const (
	TypeDictionaryUpdate MessageType = "dictionary_update"
	TypePing             MessageType = "ping"
)

// Message is the push-channel frame from the remote store.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DictionaryUpdatePayload announces that the remote copy changed. It only
// carries the new hash; content always travels through an explicit
// download.
type DictionaryUpdatePayload struct {
	SiteID string `json:"site_id"`
	Hash   string `json:"hash"`
}

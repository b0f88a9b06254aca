package progress

import "github.com/goccy/go-json"

type MessageType string

const (
	MessageTypeConnected   MessageType = "connected"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeProgress    MessageType = "progress"
	MessageTypeResult      MessageType = "result"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
)

type IncomingMessage struct {
	Type    MessageType `json:"type"`
	VideoID string      `json:"videoId,omitempty"`
}

type OutgoingMessage struct {
	Type    MessageType     `json:"type"`
	VideoID string          `json:"videoId,omitempty"`
	// Percent is never omitted: 0% is a real progress value.
	Percent int             `json:"percent"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

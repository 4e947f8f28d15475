// Package live implements the live-session event feed and the monitor that
// projects it into a chat transcript.
package live

import (
	"encoding/json"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
)

// EventType tags a live stream event
type EventType string

const (
	EventUserMessage EventType = "user_message"
	EventBotTrace    EventType = "bot_trace"
	EventEnd         EventType = "end"
)

// CloseReason says why a subscription ended on its own
type CloseReason string

const (
	// CloseCompleted means every scripted turn was delivered
	CloseCompleted CloseReason = "completed"
	// CloseDisconnected means the transport ended without an end event
	CloseDisconnected CloseReason = "disconnected"
)

// Event is one frame of the live stream
type Event struct {
	Type      EventType
	Turn      int
	Text      string           // user_message text
	Payload   internal.Payload // bot_trace body
	Reason    CloseReason      // end only
	Timestamp time.Time
}

// Message returns the text to display for the event
func (e Event) Message() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Payload != nil {
		return e.Payload.Text()
	}
	return ""
}

type eventJSON struct {
	Type      EventType       `json:"type"`
	Turn      int             `json:"turn,omitempty"`
	Text      string          `json:"text,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Reason    CloseReason     `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarshalJSON encodes the event in its stream wire shape
func (e Event) MarshalJSON() ([]byte, error) {
	raw, err := internal.MarshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		Type:      e.Type,
		Turn:      e.Turn,
		Text:      e.Text,
		Payload:   raw,
		Reason:    e.Reason,
		Timestamp: e.Timestamp,
	})
}

// UnmarshalJSON decodes a stream frame
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Event{
		Type:      wire.Type,
		Turn:      wire.Turn,
		Text:      wire.Text,
		Reason:    wire.Reason,
		Timestamp: wire.Timestamp,
	}
	if len(wire.Payload) > 0 {
		e.Payload = internal.ParsePayload(wire.Payload)
	}
	return nil
}

// EventHandler receives stream events
type EventHandler func(Event)

// CloseHandler is invoked once when a subscription ends on its own
type CloseHandler func(CloseReason)

// Unsubscribe stops a subscription. After it returns no handler call starts.
type Unsubscribe func()

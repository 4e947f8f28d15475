package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload is the parsed body of a log entry or live trace.
// Concrete variants are TextPayload, ChoicePayload, RequestPayload and
// OpaquePayload; anything not recognized lands in OpaquePayload.
type Payload interface {
	// Kind returns the upstream payload type tag
	Kind() string
	// Text returns the message shown to a reader
	Text() string
	isPayload()
}

// TextPayload is a plain text or spoken message
type TextPayload struct {
	Type    string `json:"type"` // "text" or "speak"
	Message string `json:"message"`
}

func (p TextPayload) Kind() string {
	if p.Type == "" {
		return "text"
	}
	return p.Type
}
func (p TextPayload) Text() string { return p.Message }
func (TextPayload) isPayload()     {}

// ChoiceButton is one button offered by a choice trace
type ChoiceButton struct {
	Name string `json:"name"`
}

// ChoicePayload offers the user a fixed set of buttons
type ChoicePayload struct {
	Buttons []ChoiceButton `json:"buttons"`
}

func (ChoicePayload) Kind() string { return "choice" }
func (p ChoicePayload) Text() string {
	names := make([]string, 0, len(p.Buttons))
	for _, b := range p.Buttons {
		names = append(names, b.Name)
	}
	return "Choices: " + strings.Join(names, " | ")
}
func (ChoicePayload) isPayload() {}

// RequestPayload is a non-text user request such as an intent or launch
type RequestPayload struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

func (p RequestPayload) Kind() string { return p.Type }
func (p RequestPayload) Text() string {
	if p.Name != "" {
		return fmt.Sprintf("[%s] %s", p.Type, p.Name)
	}
	return "[" + p.Type + "]"
}
func (RequestPayload) isPayload() {}

// OpaquePayload keeps a payload that did not match a known shape.
// Err is set when the raw bytes were not even valid JSON.
type OpaquePayload struct {
	Raw json.RawMessage
	Err error
}

func (p OpaquePayload) Kind() string { return "opaque" }
func (p OpaquePayload) Text() string { return string(p.Raw) }
func (OpaquePayload) isPayload()     {}

// ErrEmptyPayload marks an entry that carried no payload at all
var ErrEmptyPayload = errors.New("empty payload")

type payloadHead struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Message *string         `json:"message"`
}

// ParsePayload decodes a raw payload into the matching variant. It never
// fails; unparseable input is returned as an OpaquePayload with Err set.
func ParsePayload(raw json.RawMessage) Payload {
	if len(raw) == 0 || string(raw) == "null" {
		return OpaquePayload{Raw: raw, Err: ErrEmptyPayload}
	}

	var head payloadHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return OpaquePayload{Raw: raw, Err: err}
	}

	switch head.Type {
	case "text", "speak":
		if head.Message != nil {
			return TextPayload{Type: head.Type, Message: *head.Message}
		}
		var s string
		if err := json.Unmarshal(head.Payload, &s); err == nil {
			return TextPayload{Type: head.Type, Message: s}
		}
		var inner struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(head.Payload, &inner); err == nil && inner.Message != nil {
			return TextPayload{Type: head.Type, Message: *inner.Message}
		}
	case "choice":
		var inner struct {
			Buttons []ChoiceButton `json:"buttons"`
		}
		if err := json.Unmarshal(head.Payload, &inner); err == nil && len(inner.Buttons) > 0 {
			return ChoicePayload{Buttons: inner.Buttons}
		}
	case "intent":
		var inner struct {
			Intent struct {
				Name string `json:"name"`
			} `json:"intent"`
		}
		if err := json.Unmarshal(head.Payload, &inner); err == nil && inner.Intent.Name != "" {
			return RequestPayload{Type: head.Type, Name: inner.Intent.Name}
		}
	case "launch":
		return RequestPayload{Type: head.Type}
	}

	return OpaquePayload{Raw: raw}
}

// MarshalPayload encodes a payload variant into its wire shape
func MarshalPayload(p Payload) (json.RawMessage, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case TextPayload:
		return json.Marshal(map[string]any{"type": v.Kind(), "payload": v.Message})
	case ChoicePayload:
		return json.Marshal(map[string]any{"type": "choice", "payload": map[string]any{"buttons": v.Buttons}})
	case RequestPayload:
		if v.Type == "intent" {
			return json.Marshal(map[string]any{"type": "intent", "payload": map[string]any{"intent": map[string]string{"name": v.Name}}})
		}
		return json.Marshal(map[string]any{"type": v.Type})
	case OpaquePayload:
		if len(v.Raw) == 0 || errors.Is(v.Err, ErrEmptyPayload) {
			return nil, nil
		}
		if v.Err != nil {
			// Invalid JSON can't be embedded as-is; keep it as a string
			return json.Marshal(string(v.Raw))
		}
		return v.Raw, nil
	default:
		return nil, fmt.Errorf("unknown payload variant %T", p)
	}
}

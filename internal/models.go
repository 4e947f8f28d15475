package internal

import (
	"encoding/json"
	"time"
)

// CustomerConfig identifies the customer a validated token belongs to
type CustomerConfig struct {
	Name          string `json:"name" yaml:"name"`
	ProjectID     string `json:"projectID" yaml:"project_id"`
	EnvironmentID string `json:"environmentID" yaml:"environment_id"`
}

// TranscriptStatus is fixed when a transcript is created
type TranscriptStatus string

const (
	StatusCompleted TranscriptStatus = "completed"
	StatusActive    TranscriptStatus = "active"
	StatusAbandoned TranscriptStatus = "abandoned"
)

// Transcript represents a recorded conversation session
type Transcript struct {
	ID        string           `json:"id" yaml:"id"`
	SessionID string           `json:"sessionID" yaml:"session_id"`
	ProjectID string           `json:"projectID" yaml:"project_id"`
	CreatedAt time.Time        `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" yaml:"updated_at"`
	Browser   string           `json:"browser,omitempty" yaml:"browser,omitempty"`
	Device    string           `json:"device,omitempty" yaml:"device,omitempty"`
	OS        string           `json:"os,omitempty" yaml:"os,omitempty"`
	TurnCount int              `json:"turnCount" yaml:"turn_count"`
	Status    TranscriptStatus `json:"status" yaml:"status"`
}

// LogType tags a transcript log entry by speaker role
type LogType string

const (
	LogTypeTrace  LogType = "trace"  // assistant
	LogTypeAction LogType = "action" // user
	LogTypeEnd    LogType = "end"
)

// Speaker labels used by the transcript viewer and every exporter
const (
	SpeakerAssistant = "Assistant"
	SpeakerUser      = "User"
	SpeakerSystem    = "System"
)

// Speaker returns the display speaker for a log type.
// Treating "action" as the user follows upstream convention; it is not
// guaranteed by the platform API.
func (t LogType) Speaker() string {
	switch t {
	case LogTypeTrace:
		return SpeakerAssistant
	case LogTypeAction:
		return SpeakerUser
	default:
		return SpeakerSystem
	}
}

// Sender returns the chat sender matching Speaker
func (t LogType) Sender() Sender {
	switch t {
	case LogTypeTrace:
		return SenderAssistant
	case LogTypeAction:
		return SenderUser
	default:
		return SenderSystem
	}
}

// LogEntry is one turn within a transcript
type LogEntry struct {
	ID        string    `json:"id"`
	Type      LogType   `json:"type"`
	Payload   Payload   `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Text returns the human readable message for the entry
func (e LogEntry) Text() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Text()
}

type logEntryJSON struct {
	ID        string          `json:"id"`
	Type      LogType         `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MarshalJSON encodes the payload back into its wire shape
func (e LogEntry) MarshalJSON() ([]byte, error) {
	raw, err := MarshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(logEntryJSON{
		ID:        e.ID,
		Type:      e.Type,
		Payload:   raw,
		CreatedAt: e.CreatedAt,
	})
}

// UnmarshalJSON decodes the entry and parses its payload into a known variant
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var wire logEntryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.ID = wire.ID
	e.Type = wire.Type
	e.CreatedAt = wire.CreatedAt
	e.Payload = ParsePayload(wire.Payload)
	return nil
}

// Sender identifies who produced a chat message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// ChatMessage is the display projection of live feed events
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// IntentCount is a named intent with the number of times it matched
type IntentCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// DateCount is a session count bucket
type DateCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// DashboardMetrics is a snapshot of project analytics
type DashboardMetrics struct {
	TotalSessions    int           `json:"totalSessions" yaml:"total_sessions"`
	TotalMessages    int           `json:"totalMessages" yaml:"total_messages"`
	AvgDuration      string        `json:"avgDuration" yaml:"avg_duration"`
	TopIntents       []IntentCount `json:"topIntents" yaml:"top_intents"`
	SessionsOverTime []DateCount   `json:"sessionsOverTime" yaml:"sessions_over_time"`
}

// TranscriptExport bundles a transcript with its logs for exporters
type TranscriptExport struct {
	TranscriptID string      `json:"transcript_id" yaml:"transcript_id"`
	Transcript   *Transcript `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Logs         []LogEntry  `json:"logs" yaml:"-"`
}

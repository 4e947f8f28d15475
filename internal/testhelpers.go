package internal

import (
	"fmt"
	"time"
)

// testEpoch anchors generated fixtures so assertions are stable
var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// CreateTestCustomer returns the customer every valid mock token maps to
func CreateTestCustomer() CustomerConfig {
	return CustomerConfig{
		Name:          "Acme Corp",
		ProjectID:     "vf_proj_12345",
		EnvironmentID: "production",
	}
}

// CreateTestTranscripts creates n transcripts, newest first
func CreateTestTranscripts(n int) []Transcript {
	transcripts := make([]Transcript, 0, n)
	for i := 0; i < n; i++ {
		created := testEpoch.Add(-time.Duration(i) * time.Hour)
		status := StatusCompleted
		if i%3 == 2 {
			status = StatusAbandoned
		}
		transcripts = append(transcripts, Transcript{
			ID:        fmt.Sprintf("trans_test%04d", i),
			SessionID: fmt.Sprintf("sess_test%04d", i),
			ProjectID: "vf_proj_12345",
			CreatedAt: created,
			UpdatedAt: created.Add(10 * time.Minute),
			Device:    "Desktop",
			TurnCount: i + 1,
			Status:    status,
		})
	}
	return transcripts
}

// CreateTestLogs creates turns alternating user and assistant entries
func CreateTestLogs(turns int) []LogEntry {
	logs := make([]LogEntry, 0, turns*2)
	for i := 0; i < turns; i++ {
		at := testEpoch.Add(time.Duration(2*i) * time.Second)
		logs = append(logs,
			LogEntry{
				ID:        fmt.Sprintf("log_u_%d", i),
				Type:      LogTypeAction,
				Payload:   TextPayload{Type: "text", Message: "Hello, I need help."},
				CreatedAt: at,
			},
			LogEntry{
				ID:        fmt.Sprintf("log_a_%d", i),
				Type:      LogTypeTrace,
				Payload:   TextPayload{Type: "text", Message: "Sure, what can I help you with today?"},
				CreatedAt: at.Add(time.Second),
			},
		)
	}
	return logs
}

// CreateTestLogEntry creates a single log entry with a text payload
func CreateTestLogEntry(id string, logType LogType, text string) LogEntry {
	return LogEntry{
		ID:        id,
		Type:      logType,
		Payload:   TextPayload{Type: "text", Message: text},
		CreatedAt: testEpoch,
	}
}

package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/voiceflow-portal/internal"
)

// JSONLExporter exports transcripts in JSONL format (one entry per line)
type JSONLExporter struct{}

type jsonlLine struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp,omitempty"`
	Speaker   string `json:"speaker"`
	Type      string `json:"type"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
}

// Export writes one speaker-attributed line per log entry
func (e *JSONLExporter) Export(doc *internal.TranscriptExport, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, entry := range doc.Logs {
		line := jsonlLine{
			ID:        entry.ID,
			Timestamp: formatTimestamp(entry),
			Speaker:   entry.Type.Speaker(),
			Type:      string(entry.Type),
			Message:   entry.Text(),
		}
		if entry.Payload != nil {
			line.Kind = entry.Payload.Kind()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode log entry %s: %w", entry.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

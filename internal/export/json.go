package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/voiceflow-portal/internal"
)

// JSONExporter exports transcripts in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a transcript and its logs in their API wire shape
func (e *JSONExporter) Export(doc *internal.TranscriptExport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	out := *doc
	if out.Logs == nil {
		out.Logs = []internal.LogEntry{}
	}
	return enc.Encode(out)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}

package export

import (
	"io"
	"strings"

	"github.com/iksnae/voiceflow-portal/internal"
)

// CSVExporter exports a transcript as Timestamp,Speaker,Message rows
type CSVExporter struct{}

// Export writes the CSV document
func (e *CSVExporter) Export(doc *internal.TranscriptExport, w io.Writer) error {
	_, err := io.WriteString(w, GenerateCSV(doc.Logs))
	return err
}

// GenerateCSV renders logs as a CSV document: a header line then one row
// per entry, joined by \n with no trailing newline. The message column is
// always quoted with embedded quotes doubled.
func GenerateCSV(logs []internal.LogEntry) string {
	rows := make([]string, 0, len(logs)+1)
	rows = append(rows, "Timestamp,Speaker,Message")
	for _, entry := range logs {
		msg := `"` + strings.ReplaceAll(entry.Text(), `"`, `""`) + `"`
		rows = append(rows, strings.Join([]string{formatTimestamp(entry), entry.Type.Speaker(), msg}, ","))
	}
	return strings.Join(rows, "\n")
}

// Extension returns the file extension for this format
func (e *CSVExporter) Extension() string {
	return "csv"
}

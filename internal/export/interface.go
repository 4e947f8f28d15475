package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/voiceflow-portal/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *internal.TranscriptExport, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "csv":
		return &CSVExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: csv, jsonl, md, yaml, json)", format)
	}
}

// Filename returns the download name for a transcript export
func Filename(transcriptID, ext string) string {
	return fmt.Sprintf("%s_export.%s", transcriptID, ext)
}

// WriteFile exports doc into dir and returns the written path
func WriteFile(dir string, exporter Exporter, doc *internal.TranscriptExport) (string, error) {
	path := filepath.Join(dir, Filename(doc.TranscriptID, exporter.Extension()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: dir, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(doc, f); err != nil {
		f.Close()
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return path, nil
}

// timestampLayout matches ECMAScript Date.toISOString
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(e internal.LogEntry) string {
	if e.CreatedAt.IsZero() {
		return ""
	}
	return e.CreatedAt.UTC().Format(timestampLayout)
}

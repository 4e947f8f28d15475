package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/voiceflow-portal/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(doc *internal.TranscriptExport, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Transcript %s\n\n", doc.TranscriptID)

	if t := doc.Transcript; t != nil {
		_, _ = fmt.Fprintf(w, "**Session:** %s  \n", t.SessionID)
		_, _ = fmt.Fprintf(w, "**Status:** %s  \n", t.Status)
		if t.Device != "" {
			_, _ = fmt.Fprintf(w, "**Device:** %s  \n", t.Device)
		}
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", t.CreatedAt.UTC().Format(timestampLayout))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(doc.Logs))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, entry := range doc.Logs {
		timestamp := ""
		if ts := formatTimestamp(entry); ts != "" {
			timestamp = fmt.Sprintf(" (%s)", ts)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", entry.Type.Speaker(), timestamp, escapeMarkdown(entry.Text()))

		if i < len(doc.Logs)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes bold and underline markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

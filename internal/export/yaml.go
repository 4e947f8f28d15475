package export

import (
	"io"

	"github.com/iksnae/voiceflow-portal/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports transcripts in YAML format
type YAMLExporter struct{}

type yamlMessage struct {
	ID        string `yaml:"id"`
	Timestamp string `yaml:"timestamp,omitempty"`
	Speaker   string `yaml:"speaker"`
	Text      string `yaml:"text"`
}

type yamlDocument struct {
	TranscriptID string               `yaml:"transcript_id"`
	Transcript   *internal.Transcript `yaml:"transcript,omitempty"`
	Messages     []yamlMessage        `yaml:"messages"`
}

// Export exports a transcript to YAML with payloads flattened to text
func (e *YAMLExporter) Export(doc *internal.TranscriptExport, w io.Writer) error {
	out := yamlDocument{
		TranscriptID: doc.TranscriptID,
		Transcript:   doc.Transcript,
		Messages:     make([]yamlMessage, 0, len(doc.Logs)),
	}
	for _, entry := range doc.Logs {
		out.Messages = append(out.Messages, yamlMessage{
			ID:        entry.ID,
			Timestamp: formatTimestamp(entry),
			Speaker:   entry.Type.Speaker(),
			Text:      entry.Text(),
		})
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(out)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}

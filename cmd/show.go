package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	transcriptHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	transcriptMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)
)

var speakerIcons = map[string]string{
	internal.SpeakerUser:      "👤",
	internal.SpeakerAssistant: "🤖",
	internal.SpeakerSystem:    "🔧",
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <transcript-id>",
	Short: "Show the turns of a transcript",
	Long:  `Display every log entry of one transcript with its speaker and time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transcriptID := args[0]

		var sinceTime time.Time
		if since != "" {
			var err error
			if sinceTime, err = time.Parse(time.RFC3339, since); err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
		}

		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		data, err := p.enter(ctx, session.ViewTranscripts)
		if err != nil {
			return err
		}

		cacheManager := internal.NewCacheManager(cfg.CacheDir(), cfg.CacheTTL)
		transcript := findCachedTranscript(cacheManager, data.Customer.ProjectID, transcriptID)

		logs, err := internal.Fetch(ctx, "Loading transcript", func(ctx context.Context) ([]internal.LogEntry, error) {
			return p.client.FetchTranscriptLogs(ctx, transcriptID)
		})
		if err != nil {
			return fmt.Errorf("failed to load transcript %s: %w", transcriptID, err)
		}

		out := cmd.OutOrStdout()
		displayTranscriptHeader(out, transcriptID, transcript, len(logs))

		if !sinceTime.IsZero() {
			filtered := make([]internal.LogEntry, 0, len(logs))
			for _, entry := range logs {
				if !entry.CreatedAt.Before(sinceTime) {
					filtered = append(filtered, entry)
				}
			}
			logs = filtered
		}

		if len(logs) == 0 {
			fmt.Fprintln(out, dateStyle.Render("No messages in this transcript."))
			return nil
		}

		total := len(logs)
		shown := logs
		if limit > 0 && limit < total {
			shown = logs[:limit]
		}
		for i, entry := range shown {
			displayLogEntry(out, i+1, total, entry)
		}

		if len(shown) < total {
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-len(shown))))
		}
		return nil
	},
}

func displayTranscriptHeader(w io.Writer, id string, t *internal.Transcript, count int) {
	fmt.Fprintln(w, transcriptHeaderStyle.Render("💬 Transcript "+id))

	var metaParts []string
	if t != nil {
		metaParts = append(metaParts,
			fmt.Sprintf("Created: %s", t.CreatedAt.Format("2006-01-02 15:04")),
			fmt.Sprintf("Status: %s", t.Status),
		)
		if t.Device != "" {
			metaParts = append(metaParts, fmt.Sprintf("Device: %s", t.Device))
		}
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", count))
	fmt.Fprintln(w, transcriptMetaStyle.Render(strings.Join(metaParts, " • ")))
}

func displayLogEntry(w io.Writer, index, total int, entry internal.LogEntry) {
	speaker := entry.Type.Speaker()
	header := speakerStyle(speaker).Render(speakerIcons[speaker]+" "+speaker) +
		" " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !entry.CreatedAt.IsZero() {
		header += " " + timestampStyle.Render(entry.CreatedAt.Format("15:04:05"))
	}
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(entry.Text())
	if content == "" {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
		return
	}
	fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
}

// wrapText breaks lines longer than width at word boundaries
func wrapText(text string, width int) string {
	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+len(word)+1 > width:
				wrapped = append(wrapped, current)
				current = word
			default:
				current += " " + word
			}
		}
		if current != "" {
			wrapped = append(wrapped, current)
		}
	}
	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var (
	transcriptsClearCache bool
	transcriptsRefresh    bool
	transcriptsStatus     string
)

var transcriptsCmd = &cobra.Command{
	Use:     "transcripts",
	Aliases: []string{"list"},
	Short:   "List recorded conversations",
	Long: `List the signed in project's transcripts, newest first.

Lists are cached under the data directory for a few minutes; use --refresh
to fetch again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch internal.TranscriptStatus(transcriptsStatus) {
		case "", internal.StatusCompleted, internal.StatusActive, internal.StatusAbandoned:
		default:
			return fmt.Errorf("unknown status %q (want completed, active or abandoned)", transcriptsStatus)
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
		if transcriptsClearCache {
			if err := cacheManager.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		transcripts, err := loadTranscripts(ctx, p, cacheManager, data.Customer.ProjectID, transcriptsRefresh)
		if err != nil {
			return err
		}

		if transcriptsStatus != "" {
			filtered := transcripts[:0:0]
			for _, t := range transcripts {
				if string(t.Status) == transcriptsStatus {
					filtered = append(filtered, t)
				}
			}
			transcripts = filtered
		}

		displayTranscripts(cmd.OutOrStdout(), transcripts, time.Now())
		return nil
	},
}

// loadTranscripts serves the project's list from cache when fresh and
// refreshes the cache otherwise
func loadTranscripts(ctx context.Context, p *portal, cm *internal.CacheManager, projectID string, refresh bool) ([]internal.Transcript, error) {
	if !refresh {
		valid, err := cm.IsCacheValid(projectID)
		if err != nil {
			internal.LogDebug("Cache validation error: %v", err)
		}
		if valid {
			transcripts, err := cm.LoadTranscripts(projectID)
			if err == nil {
				internal.LogInfo("Loaded %d transcript(s) from cache", len(transcripts))
				return transcripts, nil
			}
			internal.LogWarn("Failed to load cache: %v, fetching from backend...", err)
		}
	}

	transcripts, err := internal.Fetch(ctx, "Loading transcripts", func(ctx context.Context) ([]internal.Transcript, error) {
		return p.client.FetchTranscripts(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transcripts: %w", err)
	}
	if err := cm.SaveTranscripts(projectID, transcripts); err != nil {
		internal.LogWarn("Failed to cache transcripts: %v", err)
	}
	return transcripts, nil
}

// findCachedTranscript returns the metadata of a transcript seen by an
// earlier listing, if any
func findCachedTranscript(cm *internal.CacheManager, projectID, id string) *internal.Transcript {
	transcripts, err := cm.LoadTranscripts(projectID)
	if err != nil {
		internal.LogDebug("No cached transcripts for %s: %v", projectID, err)
		return nil
	}
	for i := range transcripts {
		if transcripts[i].ID == id {
			return &transcripts[i]
		}
	}
	return nil
}

// relativeDate renders t compactly relative to now
func relativeDate(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func statusStyle(status internal.TranscriptStatus) lipgloss.Style {
	switch status {
	case internal.StatusCompleted:
		return successStyle
	case internal.StatusAbandoned:
		return warningStyle
	default:
		return infoStyle
	}
}

func displayTranscripts(out io.Writer, transcripts []internal.Transcript, now time.Time) {
	if len(transcripts) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No transcripts found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d transcript(s)", len(transcripts))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Created")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Device")+"\t")
	fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, t := range transcripts {
		device := t.Device
		if device == "" {
			device = "—"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(t.ID),
			dateStyle.Render(relativeDate(t.CreatedAt, now)),
			countStyle.Render(strconv.Itoa(t.TurnCount)),
			statusStyle(t.Status).Render(string(t.Status)),
			deviceStyle.Render(device),
		)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: view one with `voiceflow-portal show "+transcripts[0].ID+"`"))
}

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.Flags().BoolVar(&transcriptsClearCache, "clear-cache", false, "Clear the cache before running")
	transcriptsCmd.Flags().BoolVar(&transcriptsRefresh, "refresh", false, "Ignore cached lists and fetch again")
	transcriptsCmd.Flags().StringVar(&transcriptsStatus, "status", "", "Only show transcripts with this status")
}

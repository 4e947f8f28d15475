package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/export"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <transcript-id>",
	Short: "Export a transcript to file",
	Long: `Export one transcript's log entries.

CSV is the default and is written as {id}_export.csv with the columns
Timestamp, Speaker and Message. JSON, JSONL, YAML and Markdown are also
available. Use --out - to write to standard output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transcriptID := args[0]

		// Validate format before touching the session
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
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
		doc := &internal.TranscriptExport{
			TranscriptID: transcriptID,
			Transcript:   findCachedTranscript(cacheManager, data.Customer.ProjectID, transcriptID),
		}

		var path string
		steps := []internal.ProgressStep{{
			Message: "Loading transcript " + transcriptID,
			Fn: func(ctx context.Context) error {
				logs, err := p.client.FetchTranscriptLogs(ctx, transcriptID)
				doc.Logs = logs
				return err
			},
		}}
		if outputDir != "-" {
			steps = append(steps, internal.ProgressStep{
				Message: "Writing " + export.Filename(transcriptID, exporter.Extension()),
				Fn: func(ctx context.Context) error {
					var err error
					path, err = export.WriteFile(outputDir, exporter, doc)
					return err
				},
			})
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}
		if len(doc.Logs) == 0 {
			internal.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("Transcript %s has no messages; exported headers only", transcriptID))
		}

		if outputDir == "-" {
			if err := exporter.Export(doc, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: exporter.Extension(), Path: "stdout", Err: err}
			}
			return nil
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Exported %d message(s) to %s", len(doc.Logs), path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv, jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", ".", "Output directory, or - for stdout")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/tui"
	"github.com/spf13/cobra"
)

var dashboardExportDir string

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive portal",
	Long: `Open the full-screen portal. Sign in at the token gate, then switch
between Dashboard, Transcripts, Live and Settings with 1-4.

Log output goes to portal.log in the data directory while the portal is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		logPath := filepath.Join(cfg.DataDir, "portal.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		internal.SetLogOutput(logFile)
		defer internal.SetLogOutput(os.Stderr)

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		model := tui.NewModel(ctx, p.shell, p.client, tui.WithExportDir(dashboardExportDir))
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		final, err := program.Run()
		if m, ok := final.(tui.Model); ok {
			m.Shutdown()
		}
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("portal exited: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVarP(&dashboardExportDir, "out", "o", ".", "Directory for transcripts exported with e")
}

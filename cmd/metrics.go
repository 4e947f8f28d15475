package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

// longest bar drawn by the sessions-over-time chart
const chartWidth = 30

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Short:   "Show the analytics summary",
	Long:    `Print session totals, top intents and daily session volume for the signed in project.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		data, err := p.enter(ctx, session.ViewDashboard)
		if err != nil {
			return err
		}

		metrics, err := internal.Fetch(ctx, "Loading dashboard metrics", p.client.FetchDashboardMetrics)
		if err != nil {
			return fmt.Errorf("failed to load metrics: %w", err)
		}

		printMetrics(cmd.OutOrStdout(), data.Customer, metrics)
		return nil
	},
}

func printMetrics(w io.Writer, customer internal.CustomerConfig, m *internal.DashboardMetrics) {
	fmt.Fprintln(w, headerStyle.Render("📊 "+customer.Name+" Dashboard"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-16s %s\n", dateStyle.Render("Total Sessions"), countStyle.Render(humanize.Comma(int64(m.TotalSessions))))
	fmt.Fprintf(w, "  %-16s %s\n", dateStyle.Render("Total Messages"), countStyle.Render(humanize.Comma(int64(m.TotalMessages))))
	fmt.Fprintf(w, "  %-16s %s\n", dateStyle.Render("Avg Duration"), countStyle.Render(m.AvgDuration))
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Top Intents"))
	if len(m.TopIntents) == 0 {
		fmt.Fprintln(w, dateStyle.Render("  No intents recorded"))
	}
	for _, intent := range m.TopIntents {
		fmt.Fprintf(w, "  %-20s %s\n", intent.Name, countStyle.Render(humanize.Comma(int64(intent.Count))))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Sessions Over Time"))
	peak := 0
	for _, d := range m.SessionsOverTime {
		peak = max(peak, d.Count)
	}
	for _, d := range m.SessionsOverTime {
		bar := 0
		if peak > 0 {
			bar = d.Count * chartWidth / peak
		}
		fmt.Fprintf(w, "  %-5s %s %d\n", d.Date, infoStyle.Render(strings.Repeat("█", bar)), d.Count)
	}
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

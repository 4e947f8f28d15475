package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/server"
	"github.com/spf13/cobra"
)

var (
	listenAddr     string
	serveHeartbeat time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulated analytics API over HTTP",
	Long: `Run the simulated backend as an HTTP API.

Point other portals at it with --api-url http://<addr>. Live sessions are
streamed as server-sent events or over a WebSocket.

Endpoints:
  POST /auth/validate
  GET  /projects/{id}/transcripts
  GET  /transcripts/{id}/logs
  GET  /transcripts/{id}/export?format=csv
  GET  /metrics
  GET  /projects/{id}/live/{session}      (SSE)
  GET  /projects/{id}/live/{session}/ws   (WebSocket)
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Listen
		if cmd.Flags().Changed("listen") {
			addr = listenAddr
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		srv := server.New(newMockClient(), server.WithHeartbeat(serveHeartbeat))
		internal.PrintInfo(cmd.OutOrStdout(), fmt.Sprintf("Serving analytics API on http://%s", addr))
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			return err
		}
		internal.PrintInfo(cmd.OutOrStdout(), "Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().DurationVar(&serveHeartbeat, "heartbeat", 15*time.Second, "Interval between SSE keepalive comments")
}

// Package backend provides the analytics API used by the portal: a
// simulated client with canned data and latency, and an HTTP client that
// talks to a running `voiceflow-portal serve`.
package backend

import (
	"context"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/live"
)

// Client is the backend used by the CLI, TUI and server
type Client interface {
	// ValidateToken maps an access token to its customer, or returns
	// *internal.InvalidTokenError
	ValidateToken(ctx context.Context, token string) (*internal.CustomerConfig, error)

	// FetchTranscripts returns the project's transcripts, newest first
	FetchTranscripts(ctx context.Context, projectID string) ([]internal.Transcript, error)

	// FetchTranscriptLogs returns the log entries of one transcript
	FetchTranscriptLogs(ctx context.Context, transcriptID string) ([]internal.LogEntry, error)

	// FetchDashboardMetrics returns the analytics snapshot
	FetchDashboardMetrics(ctx context.Context) (*internal.DashboardMetrics, error)

	// SubscribeLive opens a live session stream
	SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent live.EventHandler, onClose live.CloseHandler) (live.Unsubscribe, error)
}

var (
	_ Client          = (*MockClient)(nil)
	_ Client          = (*HTTPClient)(nil)
	_ live.Subscriber = Client(nil)
)

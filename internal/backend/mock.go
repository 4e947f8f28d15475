package backend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/live"
)

// Latency is the simulated delay of each mock call
type Latency struct {
	Validate    time.Duration
	Transcripts time.Duration
	Logs        time.Duration
	Metrics     time.Duration
}

// DefaultLatency mirrors a slow remote API
func DefaultLatency() Latency {
	return Latency{
		Validate:    800 * time.Millisecond,
		Transcripts: 600 * time.Millisecond,
		Logs:        500 * time.Millisecond,
		Metrics:     400 * time.Millisecond,
	}
}

const (
	mockTranscriptCount = 20
	mockLogTurns        = 5
	minTokenLength      = 4
)

// MockOption configures a MockClient
type MockOption func(*MockClient)

// WithLatency overrides the simulated delays
func WithLatency(l Latency) MockOption {
	return func(c *MockClient) { c.latency = l }
}

// NoLatency disables every simulated delay
func NoLatency() MockOption {
	return func(c *MockClient) { c.latency = Latency{} }
}

// WithFeedOptions overrides the pacing of live sessions
func WithFeedOptions(opts live.Options) MockOption {
	return func(c *MockClient) { c.feed = live.NewFeed(opts) }
}

// WithSeed makes the generated transcript set reproducible
func WithSeed(seed uint64) MockOption {
	return func(c *MockClient) { c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithNow overrides the clock used for generated timestamps
func WithNow(now func() time.Time) MockOption {
	return func(c *MockClient) { c.now = now }
}

// MockClient simulates the analytics API in memory
type MockClient struct {
	latency Latency
	feed    *live.Feed
	rng     *rand.Rand
	now     func() time.Time

	once        sync.Once
	transcripts []internal.Transcript
}

// NewMockClient creates a mock backend with the default latency and pacing
func NewMockClient(opts ...MockOption) *MockClient {
	c := &MockClient{
		latency: DefaultLatency(),
		feed:    live.NewFeed(live.DefaultOptions()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// ValidateToken accepts any token longer than three characters
func (c *MockClient) ValidateToken(ctx context.Context, token string) (*internal.CustomerConfig, error) {
	if err := c.wait(ctx, c.latency.Validate); err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(token)
	if n < minTokenLength {
		internal.LogDebug("rejecting token of length %d", n)
		return nil, &internal.InvalidTokenError{Length: n}
	}
	return &internal.CustomerConfig{
		Name:          "Acme Corp",
		ProjectID:     "vf_proj_12345",
		EnvironmentID: "production",
	}, nil
}

// FetchTranscripts returns the client's fixed transcript set stamped with
// projectID, sorted by creation time descending
func (c *MockClient) FetchTranscripts(ctx context.Context, projectID string) ([]internal.Transcript, error) {
	if err := c.wait(ctx, c.latency.Transcripts); err != nil {
		return nil, err
	}
	c.once.Do(c.generateTranscripts)

	out := make([]internal.Transcript, len(c.transcripts))
	copy(out, c.transcripts)
	for i := range out {
		out[i].ProjectID = projectID
	}
	return out, nil
}

func (c *MockClient) generateTranscripts() {
	now := c.now()
	c.transcripts = make([]internal.Transcript, 0, mockTranscriptCount)
	for i := 0; i < mockTranscriptCount; i++ {
		status := internal.StatusAbandoned
		if c.rng.Float64() > 0.3 {
			status = internal.StatusCompleted
		}
		device := "Mobile"
		if c.rng.Float64() > 0.5 {
			device = "Desktop"
		}
		c.transcripts = append(c.transcripts, internal.Transcript{
			ID:        "trans_" + c.randomID(9),
			SessionID: "sess_" + c.randomID(9),
			CreatedAt: now.Add(-time.Duration(c.rng.Int64N(1_000_000_000)) * time.Millisecond),
			UpdatedAt: now,
			TurnCount: c.rng.IntN(20) + 1,
			Status:    status,
			Device:    device,
		})
	}
	slices.SortStableFunc(c.transcripts, func(a, b internal.Transcript) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	internal.LogDebug("generated %d mock transcripts", len(c.transcripts))
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func (c *MockClient) randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[c.rng.IntN(len(idAlphabet))]
	}
	return string(b)
}

// FetchTranscriptLogs returns a scripted five turn conversation for any id
func (c *MockClient) FetchTranscriptLogs(ctx context.Context, transcriptID string) ([]internal.LogEntry, error) {
	if err := c.wait(ctx, c.latency.Logs); err != nil {
		return nil, err
	}
	now := c.now()
	logs := make([]internal.LogEntry, 0, mockLogTurns*2)
	for i := 0; i < mockLogTurns; i++ {
		logs = append(logs,
			internal.LogEntry{
				ID:        fmt.Sprintf("log_u_%d", i),
				Type:      internal.LogTypeAction,
				Payload:   internal.TextPayload{Type: "text", Message: "Hello, I need help."},
				CreatedAt: now,
			},
			internal.LogEntry{
				ID:        fmt.Sprintf("log_a_%d", i),
				Type:      internal.LogTypeTrace,
				Payload:   internal.TextPayload{Type: "text", Message: "Sure, what can I help you with today?"},
				CreatedAt: now,
			},
		)
	}
	return logs, nil
}

// FetchDashboardMetrics returns the static analytics snapshot
func (c *MockClient) FetchDashboardMetrics(ctx context.Context) (*internal.DashboardMetrics, error) {
	if err := c.wait(ctx, c.latency.Metrics); err != nil {
		return nil, err
	}
	return &internal.DashboardMetrics{
		TotalSessions: 1245,
		TotalMessages: 8430,
		AvgDuration:   "4m 12s",
		TopIntents: []internal.IntentCount{
			{Name: "check_balance", Count: 450},
			{Name: "transfer_funds", Count: 320},
			{Name: "contact_support", Count: 210},
			{Name: "fallback", Count: 150},
		},
		SessionsOverTime: []internal.DateCount{
			{Date: "Mon", Count: 120},
			{Date: "Tue", Count: 132},
			{Date: "Wed", Count: 101},
			{Date: "Thu", Count: 134},
			{Date: "Fri", Count: 90},
			{Date: "Sat", Count: 230},
			{Date: "Sun", Count: 210},
		},
	}, nil
}

// SubscribeLive starts a scripted session on the client's feed
func (c *MockClient) SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent live.EventHandler, onClose live.CloseHandler) (live.Unsubscribe, error) {
	return c.feed.SubscribeLive(ctx, projectID, sessionID, onEvent, onClose)
}

func (c *MockClient) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

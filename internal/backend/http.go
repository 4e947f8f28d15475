package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/live"
)

// DefaultTimeout bounds every non-streaming request
const DefaultTimeout = 10 * time.Second

// HTTPOption configures an HTTPClient
type HTTPOption func(*HTTPClient)

// WithTimeout sets the request timeout for non-streaming calls
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithTransport sets the round tripper used for every request
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(c *HTTPClient) { c.transport = rt }
}

// HTTPClient talks to the portal API over HTTP
type HTTPClient struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper

	http   *http.Client // bounded by timeout
	stream *http.Client // no timeout, lives as long as the subscription
}

// NewHTTPClient creates a client for the API at baseURL
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{Timeout: c.timeout, Transport: c.transport}
	c.stream = &http.Client{Transport: c.transport}
	return c
}

// BaseURL returns the API root the client was created with
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ValidateToken posts the token to /auth/validate. A 401 becomes
// *internal.InvalidTokenError.
func (c *HTTPClient) ValidateToken(ctx context.Context, token string) (*internal.CustomerConfig, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	u := c.baseURL + "/auth/validate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &internal.NetworkError{Op: "validate", URL: u, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &internal.NetworkError{Op: "validate", URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &internal.InvalidTokenError{Length: utf8.RuneCountInString(token)}
	}
	var cfg internal.CustomerConfig
	if err := decodeResponse(resp, "validate", u, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FetchTranscripts lists the project's transcripts. A null body is an
// empty list.
func (c *HTTPClient) FetchTranscripts(ctx context.Context, projectID string) ([]internal.Transcript, error) {
	var transcripts []internal.Transcript
	if err := c.getJSON(ctx, "transcripts", "/projects/"+url.PathEscape(projectID)+"/transcripts", &transcripts); err != nil {
		return nil, err
	}
	if transcripts == nil {
		transcripts = []internal.Transcript{}
	}
	slices.SortStableFunc(transcripts, func(a, b internal.Transcript) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return transcripts, nil
}

// FetchTranscriptLogs returns the entries of one transcript
func (c *HTTPClient) FetchTranscriptLogs(ctx context.Context, transcriptID string) ([]internal.LogEntry, error) {
	var logs []internal.LogEntry
	if err := c.getJSON(ctx, "logs", "/transcripts/"+url.PathEscape(transcriptID)+"/logs", &logs); err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []internal.LogEntry{}
	}
	return logs, nil
}

// FetchDashboardMetrics returns the analytics snapshot
func (c *HTTPClient) FetchDashboardMetrics(ctx context.Context) (*internal.DashboardMetrics, error) {
	var metrics internal.DashboardMetrics
	if err := c.getJSON(ctx, "metrics", "/metrics", &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, path string, out any) error {
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &internal.NetworkError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	internal.LogDebug("GET %s", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return &internal.NetworkError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()
	return decodeResponse(resp, op, u, out)
}

func decodeResponse(resp *http.Response, op, u string, out any) error {
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &internal.NetworkError{
			Op:         op,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg))),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &internal.NetworkError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// SubscribeLive opens the session's event stream. The connection is
// established before SubscribeLive returns; events are then delivered from
// a reader goroutine. A stream that ends without an end event closes with
// live.CloseDisconnected. Malformed frames are logged and skipped.
func (c *HTTPClient) SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent live.EventHandler, onClose live.CloseHandler) (live.Unsubscribe, error) {
	u := c.baseURL + "/projects/" + url.PathEscape(projectID) + "/live/" + url.PathEscape(sessionID)

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, &internal.NetworkError{Op: "live", URL: u, Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")

	// Honor cancellation of ctx while connecting only
	stop := context.AfterFunc(ctx, cancel)
	resp, err := c.stream.Do(req)
	if !stop() && err == nil {
		resp.Body.Close()
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, &internal.NetworkError{Op: "live", URL: u, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &internal.NetworkError{Op: "live", URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	s := &streamSubscription{
		sessionID: sessionID,
		ctx:       streamCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		onEvent:   onEvent,
		onClose:   onClose,
	}
	internal.LogInfo("Live stream %s connected", sessionID)
	go s.read(resp.Body)
	return s.unsubscribe, nil
}

type streamSubscription struct {
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
	onEvent   live.EventHandler
	onClose   live.CloseHandler
}

func (s *streamSubscription) unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *streamSubscription) read(body io.ReadCloser) {
	defer close(s.done)
	defer body.Close()

	scanner := newSSEScanner(body)
	for scanner.Next() {
		raw := scanner.Event()
		var ev live.Event
		if err := json.Unmarshal([]byte(raw.Data), &ev); err != nil {
			internal.LogWarn("%v", &internal.StreamError{SessionID: s.sessionID, Frame: raw.Data, Err: err})
			continue
		}
		if ev.Type == "" {
			ev.Type = live.EventType(raw.Type)
		}
		if s.ctx.Err() != nil {
			return
		}

		if ev.Type == live.EventEnd {
			reason := ev.Reason
			if reason == "" {
				reason = live.CloseCompleted
			}
			s.close(reason)
			return
		}
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}

	if s.ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		internal.LogWarn("%v", &internal.StreamError{SessionID: s.sessionID, Err: err})
	}
	s.close(live.CloseDisconnected)
}

func (s *streamSubscription) close(reason live.CloseReason) {
	internal.LogInfo("Live stream %s closed: %s", s.sessionID, reason)
	if s.onClose != nil {
		s.onClose(reason)
	}
}

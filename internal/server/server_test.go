package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/backend"
	"github.com/iksnae/voiceflow-portal/internal/live"
	"github.com/iksnae/voiceflow-portal/testutil"
)

func fastMock() *backend.MockClient {
	return testutil.FastMockClient(2)
}

func newTestServer(t *testing.T, client backend.Client, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(client, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, fastMock())
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestServer_Validate(t *testing.T) {
	srv := newTestServer(t, fastMock())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"token":"abcd"}`, http.StatusOK},
		{"short", `{"token":"ab"}`, http.StatusUnauthorized},
		{"malformed", `{"token":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/auth/validate", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	if resp, _ := http.Get(srv.URL + "/auth/validate"); resp != nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET /auth/validate status = %d, want 405", resp.StatusCode)
		}
	}
}

// The HTTP client and server agree on every endpoint
func TestServer_RoundTripThroughHTTPClient(t *testing.T) {
	srv := newTestServer(t, fastMock())
	c := backend.NewHTTPClient(srv.URL)
	ctx := context.Background()

	cfg, err := c.ValidateToken(ctx, "abcd")
	if err != nil || cfg.Name != "Acme Corp" {
		t.Fatalf("ValidateToken() = %+v, %v", cfg, err)
	}
	if _, err := c.ValidateToken(ctx, "ab"); !internal.IsInvalidToken(err) {
		t.Errorf("ValidateToken(ab) error = %v", err)
	}

	transcripts, err := c.FetchTranscripts(ctx, "vf_proj_12345")
	if err != nil {
		t.Fatal(err)
	}
	if len(transcripts) != 20 || transcripts[0].ProjectID != "vf_proj_12345" {
		t.Errorf("transcripts: %d, first %+v", len(transcripts), transcripts[0])
	}
	for i := 1; i < len(transcripts); i++ {
		if transcripts[i].CreatedAt.After(transcripts[i-1].CreatedAt) {
			t.Fatalf("transcripts not sorted at %d", i)
		}
	}

	logs, err := c.FetchTranscriptLogs(ctx, transcripts[0].ID)
	if err != nil || len(logs) != 10 {
		t.Fatalf("FetchTranscriptLogs() = %d, %v", len(logs), err)
	}
	if logs[1].Text() != "Sure, what can I help you with today?" {
		t.Errorf("log text = %q", logs[1].Text())
	}

	metrics, err := c.FetchDashboardMetrics(ctx)
	if err != nil || metrics.TotalSessions != 1245 {
		t.Errorf("FetchDashboardMetrics() = %+v, %v", metrics, err)
	}

	events := make(chan live.Event, 10)
	closed := make(chan live.CloseReason, 1)
	unsubscribe, err := c.SubscribeLive(ctx, "vf_proj_12345", "live_rt0001",
		func(ev live.Event) { events <- ev },
		func(r live.CloseReason) { closed <- r })
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()
	select {
	case r := <-closed:
		if r != live.CloseCompleted {
			t.Errorf("close reason = %s", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close")
	}
	if len(events) != 4 {
		t.Errorf("got %d events, want 4", len(events))
	}
}

func TestServer_Export(t *testing.T) {
	srv := newTestServer(t, fastMock())

	resp, err := http.Get(srv.URL + "/transcripts/trans_abc/export")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="trans_abc_export.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(string(body), "\n")
	if len(lines) != 11 || lines[0] != "Timestamp,Speaker,Message" {
		t.Errorf("csv has %d lines, header %q", len(lines), lines[0])
	}

	resp, err = http.Get(srv.URL + "/transcripts/trans_abc/export?format=md")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "trans_abc_export.md") {
		t.Errorf("markdown Content-Disposition = %q", cd)
	}

	resp, err = http.Get(srv.URL + "/transcripts/trans_abc/export?format=xml")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("xml export status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_SSEHeartbeat(t *testing.T) {
	// A session that never starts leaves only keepalives on the wire
	client := backend.NewMockClient(backend.NoLatency(), backend.WithFeedOptions(live.Options{StartDelay: time.Hour}))
	srv := newTestServer(t, client, WithHeartbeat(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/projects/p/live/live_idle01", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != ": ping\n" {
		t.Errorf("first line = %q, want keepalive", line)
	}
}

type failingLive struct {
	*backend.MockClient
}

func (failingLive) SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent live.EventHandler, onClose live.CloseHandler) (live.Unsubscribe, error) {
	return nil, &internal.NetworkError{Op: "live", URL: "upstream", Err: errors.New("refused")}
}

func TestServer_SSESubscribeError(t *testing.T) {
	srv := newTestServer(t, failingLive{fastMock()})
	resp, err := http.Get(srv.URL + "/projects/p/live/live_x")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestServer_WebSocket(t *testing.T) {
	srv := newTestServer(t, fastMock())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/projects/vf_proj_12345/live/live_ws0001/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got []live.Event
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("ReadMessage() error = %v", err)
			}
			break
		}
		var ev live.Event
		testutil.JSONUnmarshal(t, data, &ev)
		got = append(got, ev)
	}

	if len(got) != 5 {
		t.Fatalf("got %d frames, want 4 events and an end", len(got))
	}
	if got[4].Type != live.EventEnd || got[4].Reason != live.CloseCompleted {
		t.Errorf("last frame = %+v", got[4])
	}
	if got[1].Type != live.EventBotTrace || got[1].Message() == "" {
		t.Errorf("bot frame = %+v", got[1])
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	sr.Write([]byte("x"))
	sr.WriteHeader(http.StatusTeapot)
	if sr.status != http.StatusOK {
		t.Errorf("status = %d, want first status 200", sr.status)
	}
	sr.Flush()
	if !rec.Flushed {
		t.Error("Flush() not forwarded")
	}
	if _, _, err := sr.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(fastMock()).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server not reachable: %v", err)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(body.String(), "ok") {
		t.Errorf("healthz body = %q", body.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

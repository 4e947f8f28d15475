package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/live"
)

func newTestAPI(t *testing.T, mux *http.ServeMux) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", WithTimeout(2*time.Second))
}

func TestHTTPClient_ValidateToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.Token != "good-token" {
			http.Error(w, "invalid", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(internal.CreateTestCustomer())
	})
	c := newTestAPI(t, mux)

	cfg, err := c.ValidateToken(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if cfg.Name != "Acme Corp" || cfg.ProjectID != "vf_proj_12345" {
		t.Errorf("config = %+v", cfg)
	}

	_, err = c.ValidateToken(context.Background(), "bad")
	var tokenErr *internal.InvalidTokenError
	if !errors.As(err, &tokenErr) || tokenErr.Length != 3 {
		t.Errorf("ValidateToken(bad) error = %v, want InvalidTokenError length 3", err)
	}
}

func TestHTTPClient_FetchTranscripts(t *testing.T) {
	older := internal.CreateTestTranscripts(3)
	// Serve oldest first; the client must reorder
	reversed := []internal.Transcript{older[2], older[0], older[1]}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}/transcripts", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "empty" {
			w.Write([]byte("null"))
			return
		}
		json.NewEncoder(w).Encode(reversed)
	})
	c := newTestAPI(t, mux)

	got, err := c.FetchTranscripts(context.Background(), "vf_proj_12345")
	if err != nil {
		t.Fatalf("FetchTranscripts() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d transcripts", len(got))
	}
	for i := range got {
		if got[i].ID != older[i].ID {
			t.Errorf("transcript %d = %s, want %s", i, got[i].ID, older[i].ID)
		}
	}

	empty, err := c.FetchTranscripts(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty project = %#v, want empty non-nil slice", empty)
	}
}

func TestHTTPClient_FetchTranscriptLogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /transcripts/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(internal.CreateTestLogs(2))
	})
	c := newTestAPI(t, mux)

	logs, err := c.FetchTranscriptLogs(context.Background(), "trans_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 4 {
		t.Fatalf("got %d logs", len(logs))
	}
	if logs[0].Text() != "Hello, I need help." || logs[0].Type.Speaker() != internal.SpeakerUser {
		t.Errorf("first log = %+v", logs[0])
	}
	if _, ok := logs[1].Payload.(internal.TextPayload); !ok {
		t.Errorf("payload type = %T, want TextPayload", logs[1].Payload)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("GET /transcripts/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})
	mux.HandleFunc("GET /projects/{id}/transcripts", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond))

	var netErr *internal.NetworkError

	_, err := c.FetchDashboardMetrics(context.Background())
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("FetchDashboardMetrics() error = %v, want 503 NetworkError", err)
	}

	_, err = c.FetchTranscriptLogs(context.Background(), "x")
	if !errors.As(err, &netErr) || netErr.Op != "logs" {
		t.Errorf("FetchTranscriptLogs() error = %v, want decode NetworkError", err)
	}

	_, err = c.FetchTranscripts(context.Background(), "slow")
	if !errors.As(err, &netErr) || netErr.StatusCode != 0 {
		t.Errorf("FetchTranscripts() error = %v, want timeout NetworkError", err)
	}

	unreachable := NewHTTPClient("http://127.0.0.1:1", WithTimeout(time.Second))
	if _, err := unreachable.FetchDashboardMetrics(context.Background()); !errors.As(err, &netErr) {
		t.Errorf("unreachable error = %v, want NetworkError", err)
	}
}

func writeSSE(w http.ResponseWriter, ev live.Event) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	w.(http.Flusher).Flush()
}

func TestHTTPClient_SubscribeLive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}/live/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		mode := r.PathValue("sessionID")
		writeSSE(w, live.Event{Type: live.EventUserMessage, Turn: 1, Text: "hi"})
		fmt.Fprint(w, "data: {broken\n\n")
		writeSSE(w, live.Event{Type: live.EventBotTrace, Turn: 1, Payload: internal.TextPayload{Type: "text", Message: "hello"}})
		if mode == "live_clean" {
			writeSSE(w, live.Event{Type: live.EventEnd, Reason: live.CloseCompleted})
		}
	})
	c := newTestAPI(t, mux)

	tests := []struct {
		session string
		want    live.CloseReason
	}{
		{"live_clean", live.CloseCompleted},
		{"live_drop", live.CloseDisconnected},
	}
	for _, tt := range tests {
		t.Run(tt.session, func(t *testing.T) {
			events := make(chan live.Event, 10)
			closed := make(chan live.CloseReason, 2)
			unsubscribe, err := c.SubscribeLive(context.Background(), "vf_proj_12345", tt.session,
				func(ev live.Event) { events <- ev },
				func(r live.CloseReason) { closed <- r })
			if err != nil {
				t.Fatalf("SubscribeLive() error = %v", err)
			}
			defer unsubscribe()

			select {
			case r := <-closed:
				if r != tt.want {
					t.Errorf("close reason = %s, want %s", r, tt.want)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("stream did not close")
			}

			if len(events) != 2 {
				t.Fatalf("got %d events, want 2 (malformed frame skipped)", len(events))
			}
			first, second := <-events, <-events
			if first.Type != live.EventUserMessage || first.Message() != "hi" {
				t.Errorf("first event = %+v", first)
			}
			if second.Type != live.EventBotTrace || second.Message() != "hello" {
				t.Errorf("second event = %+v", second)
			}
		})
	}
}

func TestHTTPClient_UnsubscribeStopsStream(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}/live/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, live.Event{Type: live.EventUserMessage, Turn: 1, Text: "hi"})
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	c := newTestAPI(t, mux)
	defer close(release)

	got := make(chan live.Event, 1)
	closed := make(chan live.CloseReason, 1)
	unsubscribe, err := c.SubscribeLive(context.Background(), "p", "live_hold",
		func(ev live.Event) { got <- ev },
		func(r live.CloseReason) { closed <- r })
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	done := make(chan struct{})
	go func() {
		unsubscribe()
		unsubscribe()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("unsubscribe did not return")
	}
	select {
	case r := <-closed:
		t.Errorf("onClose(%s) after unsubscribe", r)
	default:
	}
}

func TestHTTPClient_SubscribeLiveStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}/live/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	c := newTestAPI(t, mux)

	_, err := c.SubscribeLive(context.Background(), "p", "s", nil, nil)
	var netErr *internal.NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusNotFound {
		t.Errorf("SubscribeLive() error = %v, want 404 NetworkError", err)
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/live"
)

const wsWriteTimeout = 10 * time.Second

// streamWriter is one transport for live events
type streamWriter struct {
	ready func() // subscription succeeded
	send  func(live.Event) error
	ping  func() error
}

// stream subscribes to a live session and hands each event to the writer
// until the session ends, a write fails or ctx is done. A session that
// closes on its own is terminated by an end event carrying the close reason.
func (s *Server) stream(ctx context.Context, projectID, sessionID string, out streamWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan live.Event, 16)
	deliver := func(ev live.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	unsubscribe, err := s.client.SubscribeLive(ctx, projectID, sessionID, deliver, func(reason live.CloseReason) {
		deliver(live.Event{Type: live.EventEnd, Reason: reason, Timestamp: s.now()})
	})
	if err != nil {
		cancel()
		return err
	}
	// cancel first so a blocked deliver returns before unsubscribe waits
	defer func() {
		cancel()
		unsubscribe()
	}()

	internal.LogInfo("Streaming live session %s", sessionID)
	if out.ready != nil {
		out.ready()
	}
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			internal.LogInfo("Live session %s: client went away", sessionID)
			return nil
		case <-heartbeat.C:
			if err := out.ping(); err != nil {
				return err
			}
		case ev := <-events:
			if err := out.send(ev); err != nil {
				return err
			}
			if ev.Type == live.EventEnd {
				internal.LogInfo("Live session %s ended: %s", sessionID, ev.Reason)
				return nil
			}
		}
	}
}

func (s *Server) handleLiveSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	started := false
	out := streamWriter{
		// Headers go out as soon as the subscription exists so clients see
		// the connection before the first event
		ready: func() {
			started = true
			h := w.Header()
			h.Set("Content-Type", "text/event-stream")
			h.Set("Cache-Control", "no-cache")
			h.Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			flusher.Flush()
		},
		send: func(ev live.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		},
		ping: func() error {
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		},
	}

	sessionID := r.PathValue("sessionID")
	if err := s.stream(r.Context(), r.PathValue("id"), sessionID, out); err != nil {
		if !started {
			writeBackendError(w, err)
			return
		}
		internal.LogWarn("live stream %s: %v", sessionID, err)
	}
}

func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		internal.LogDebug("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so control messages are processed; any read
	// error means the peer is gone
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := streamWriter{
		send: func(ev live.Event) error {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			return conn.WriteJSON(ev)
		},
		ping: func() error {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
		},
	}

	sessionID := r.PathValue("sessionID")
	if err := s.stream(ctx, r.PathValue("id"), sessionID, out); err != nil {
		internal.LogWarn("live websocket %s: %v", sessionID, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()), time.Now().Add(wsWriteTimeout))
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), time.Now().Add(wsWriteTimeout))
}

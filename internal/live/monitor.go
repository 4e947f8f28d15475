package live

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
)

// ErrAlreadyListening is returned by Start while a session is being monitored
var ErrAlreadyListening = errors.New("monitor is already listening")

// Subscriber opens live sessions. backend.Client satisfies it.
type Subscriber interface {
	SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent EventHandler, onClose CloseHandler) (Unsubscribe, error)
}

// State is the monitor lifecycle state
type State int

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithOnChange registers a callback fired after every message list change.
// It runs outside the monitor lock.
func WithOnChange(fn func()) MonitorOption {
	return func(m *Monitor) { m.onChange = fn }
}

// WithSessionIDs overrides live session id generation
func WithSessionIDs(fn func() string) MonitorOption {
	return func(m *Monitor) { m.newID = fn }
}

// WithClock overrides the timestamp source for system messages
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// Monitor follows one live session at a time and accumulates its messages.
//
//	Idle --Start--> Listening --(completed | disconnected | Stop)--> Idle
//
// Messages are append-only while listening and are reset on the next Start.
type Monitor struct {
	sub       Subscriber
	projectID string
	onChange  func()
	newID     func() string
	now       func() time.Time

	mu          sync.Mutex
	state       State
	sessionID   string
	messages    []internal.ChatMessage
	gen         uint64
	seq         int
	unsubscribe Unsubscribe
	lastClose   CloseReason
}

// NewMonitor creates an idle monitor for projectID
func NewMonitor(sub Subscriber, projectID string, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		sub:       sub,
		projectID: projectID,
		newID:     NewSessionID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns "live_" followed by 6 random base36 characters
func NewSessionID() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return "live_" + string(b)
}

// Start clears the history and subscribes to a fresh session
func (m *Monitor) Start(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state == StateListening {
		m.mu.Unlock()
		return "", ErrAlreadyListening
	}
	m.gen++
	gen := m.gen
	id := m.newID()
	m.state = StateListening
	m.sessionID = id
	m.lastClose = ""
	m.seq = 0
	m.messages = []internal.ChatMessage{{
		ID:        "init",
		Sender:    internal.SenderSystem,
		Text:      fmt.Sprintf("Connected to session %s. Waiting for user input...", id),
		Timestamp: m.now(),
	}}
	m.mu.Unlock()
	m.changed()

	unsub, err := m.sub.SubscribeLive(ctx, m.projectID, id, m.eventHandler(gen), m.closeHandler(gen))
	if err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.state = StateIdle
			m.sessionID = ""
			m.appendLocked(internal.SenderSystem, "Connection failed: "+err.Error(), m.now())
		}
		m.mu.Unlock()
		m.changed()
		return "", err
	}

	m.mu.Lock()
	if m.gen == gen && m.state == StateListening {
		m.unsubscribe = unsub
		m.mu.Unlock()
		internal.LogInfo("Monitoring live session %s", id)
		return id, nil
	}
	m.mu.Unlock()
	// Stopped or closed while subscribing
	unsub()
	return id, nil
}

// Stop unsubscribes from the current session. Messages are kept until the
// next Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.state = StateIdle
	m.sessionID = ""
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	m.changed()
}

// State returns the current lifecycle state
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Listening reports whether a session is being monitored
func (m *Monitor) Listening() bool {
	return m.State() == StateListening
}

// SessionID returns the monitored session id, or "" when idle
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// LastClose returns why the previous session ended on its own, if it did
func (m *Monitor) LastClose() CloseReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastClose
}

// Messages returns a copy of the accumulated messages
func (m *Monitor) Messages() []internal.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]internal.ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Monitor) eventHandler(gen uint64) EventHandler {
	return func(ev Event) {
		m.mu.Lock()
		if m.gen != gen || m.state != StateListening {
			m.mu.Unlock()
			return
		}
		switch ev.Type {
		case EventUserMessage:
			m.appendLocked(internal.SenderUser, ev.Message(), ev.Timestamp)
		case EventBotTrace:
			m.appendLocked(internal.SenderAssistant, ev.Message(), ev.Timestamp)
		default:
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.changed()
	}
}

func (m *Monitor) closeHandler(gen uint64) CloseHandler {
	return func(reason CloseReason) {
		m.mu.Lock()
		if m.gen != gen || m.state != StateListening {
			m.mu.Unlock()
			return
		}
		text := "Session ended."
		if reason == CloseDisconnected {
			text = "Connection lost."
		}
		m.messages = append(m.messages, internal.ChatMessage{
			ID:        "end",
			Sender:    internal.SenderSystem,
			Text:      text,
			Timestamp: m.now(),
		})
		m.state = StateIdle
		m.lastClose = reason
		m.unsubscribe = nil
		m.mu.Unlock()
		internal.LogInfo("Live session closed: %s", reason)
		m.changed()
	}
}

func (m *Monitor) appendLocked(sender internal.Sender, text string, at time.Time) {
	m.seq++
	if at.IsZero() {
		at = m.now()
	}
	m.messages = append(m.messages, internal.ChatMessage{
		ID:        fmt.Sprintf("msg_%d", m.seq),
		Sender:    sender,
		Text:      text,
		Timestamp: at,
	})
}

func (m *Monitor) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}

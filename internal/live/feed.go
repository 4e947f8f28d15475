package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
)

// Script produces the user text and assistant reply for a turn
type Script func(turn int) (userText string, reply internal.Payload)

// DefaultScript is the canned demo conversation
func DefaultScript(turn int) (string, internal.Payload) {
	return fmt.Sprintf("User message simulation %d", turn),
		internal.TextPayload{Type: "text", Message: fmt.Sprintf("This is a live stream response from Voiceflow for turn %d.", turn)}
}

// Options controls the pacing of a simulated session
type Options struct {
	Turns        int
	StartDelay   time.Duration // before turn 1
	ReplyDelay   time.Duration // user_message to bot_trace
	TurnInterval time.Duration // turn start to next turn start
	Script       Script
	Now          func() time.Time
}

// DefaultOptions returns the demo pacing: 10 turns, 1s start delay, 1s
// reply delay and 4s between turns
func DefaultOptions() Options {
	return Options{
		Turns:        10,
		StartDelay:   time.Second,
		ReplyDelay:   time.Second,
		TurnInterval: 4 * time.Second,
		Script:       DefaultScript,
		Now:          time.Now,
	}
}

// Feed emits scripted sessions to subscribers
type Feed struct {
	opts Options
}

// NewFeed creates a feed. Zero Turns, Script or Now fall back to defaults;
// zero delays are honored.
func NewFeed(opts Options) *Feed {
	def := DefaultOptions()
	if opts.Turns <= 0 {
		opts.Turns = def.Turns
	}
	if opts.Script == nil {
		opts.Script = def.Script
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Feed{opts: opts}
}

// Options returns the pacing the feed was built with
func (f *Feed) Options() Options {
	return f.opts
}

type subscription struct {
	sessionID string
	opts      Options
	onEvent   EventHandler
	onClose   CloseHandler
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// Subscribe starts a session for sessionID. onEvent receives user_message
// and bot_trace events; onClose fires once with CloseCompleted after the last
// reply. Either handler may be nil.
//
// The returned Unsubscribe cancels pending work and waits for the session
// goroutine to exit, so no handler call runs after it returns. It is
// idempotent. Handlers run on the session goroutine and must not call it
// synchronously; use `go unsubscribe()` to end a session from a handler.
func (f *Feed) Subscribe(sessionID string, onEvent EventHandler, onClose CloseHandler) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	s := &subscription{
		sessionID: sessionID,
		opts:      f.opts,
		onEvent:   onEvent,
		onClose:   onClose,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	internal.LogDebug("live: session %s subscribed", sessionID)
	go s.run()
	return s.unsubscribe
}

// SubscribeLive lets a Feed act as a Subscriber. projectID is not used by
// the simulation.
func (f *Feed) SubscribeLive(ctx context.Context, projectID, sessionID string, onEvent EventHandler, onClose CloseHandler) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Subscribe(sessionID, onEvent, onClose), nil
}

func (s *subscription) unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		internal.LogDebug("live: session %s unsubscribed", s.sessionID)
	})
	<-s.done
}

func (s *subscription) run() {
	defer close(s.done)
	defer s.cancel()

	if !s.sleep(s.opts.StartDelay) {
		return
	}

	wait := s.opts.TurnInterval - s.opts.ReplyDelay
	if wait < 0 {
		wait = 0
	}

	for turn := 1; turn <= s.opts.Turns; turn++ {
		userText, reply := s.opts.Script(turn)

		if !s.emit(Event{Type: EventUserMessage, Turn: turn, Text: userText, Timestamp: s.opts.Now()}) {
			return
		}
		if !s.sleep(s.opts.ReplyDelay) {
			return
		}
		if !s.emit(Event{Type: EventBotTrace, Turn: turn, Payload: reply, Timestamp: s.opts.Now()}) {
			return
		}
		if turn < s.opts.Turns && !s.sleep(wait) {
			return
		}
	}

	if s.ctx.Err() != nil {
		return
	}
	internal.LogDebug("live: session %s completed after %d turns", s.sessionID, s.opts.Turns)
	if s.onClose != nil {
		s.onClose(CloseCompleted)
	}
}

// sleep waits d or until the subscription is cancelled. The timer is always
// stopped before returning.
func (s *subscription) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *subscription) emit(ev Event) bool {
	if s.ctx.Err() != nil {
		return false
	}
	if s.onEvent != nil {
		s.onEvent(ev)
	}
	return s.ctx.Err() == nil
}

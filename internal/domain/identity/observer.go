package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

type SessionEventType string

const (
	EventSignedIn        SessionEventType = "signed_in"
	EventSignedOut       SessionEventType = "signed_out"
	EventTokenRefreshed  SessionEventType = "token_refreshed"
	EventIdentityUpdated SessionEventType = "identity_updated"
)

// SessionEvent carries the whole resolved identity, never a patch.
// Subscribers replace their copy on every event.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	UserID    uuid.UUID        `json:"user_id"`
	SessionID uuid.UUID        `json:"session_id"`
	Identity  *Identity        `json:"identity"`
	At        time.Time        `json:"at"`
}

// Observers is a registry of session event subscribers. Callbacks run
// synchronously on the publishing goroutine and must not block.
type Observers struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(SessionEvent)
}

func NewObservers() *Observers {
	return &Observers{subs: make(map[int]func(SessionEvent))}
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observers) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

func (o *Observers) Notify(ev SessionEvent) {
	o.mu.RLock()
	subs := make([]func(SessionEvent), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (o *Observers) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// WebSocketBridge forwards session events to the user's private topic so
// every open tab of that user re-renders with the new identity.
func WebSocketBridge(pub websocket.EventPublisher, logger zerolog.Logger) func(SessionEvent) {
	return func(ev SessionEvent) {
		out, err := websocket.NewEvent("session."+string(ev.Type), websocket.UserTopic(ev.UserID.String()), ev.UserID.String(), ev)
		if err != nil {
			logger.Error().Err(err).Msg("build session event")
			return
		}
		if err := pub.Publish(context.Background(), out); err != nil {
			logger.Warn().Err(err).Str("user_id", ev.UserID.String()).Msg("publish session event")
		}
	}
}

// AuditSubscriber logs every session change.
func AuditSubscriber(logger zerolog.Logger) func(SessionEvent) {
	return func(ev SessionEvent) {
		evt := logger.Info().
			Str("type", "session").
			Str("event", string(ev.Type)).
			Str("user_id", ev.UserID.String())
		if ev.SessionID != uuid.Nil {
			evt = evt.Str("session_id", ev.SessionID.String())
		}
		if ev.Identity != nil {
			evt = evt.Str("role", string(ev.Identity.Role))
		}
		evt.Msg("session changed")
	}
}

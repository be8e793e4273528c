package board

import (
	"context"
	"sync"

	"github.com/robotalks/dino.go/pkg/wire"
)

// Listener is notified of events dispatched to a component.
// c is nil for observers notified of unhandled events.
type Listener interface {
	HandleEvent(ctx context.Context, c Component, ev *wire.Event) error
}

// ListenerFunc is the func form of Listener.
type ListenerFunc func(ctx context.Context, c Component, ev *wire.Event) error

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(ctx context.Context, c Component, ev *wire.Event) error {
	return f(ctx, c, ev)
}

// Subscription is the handle of a registered listener.
type Subscription struct {
	once   sync.Once
	remove func()
}

func newSubscription(remove func()) *Subscription {
	return &Subscription{remove: remove}
}

// Close removes the listener. It's a no-op if already removed.
func (s *Subscription) Close() error {
	s.once.Do(s.remove)
	return nil
}

func invokeListener(ctx context.Context, l Listener, c Component, ev *wire.Event) (err *ListenerError) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerError{Pin: ev.Pin, Panic: r}
		}
	}()
	if e := l.HandleEvent(ctx, c, ev); e != nil {
		return &ListenerError{Pin: ev.Pin, Err: e}
	}
	return nil
}

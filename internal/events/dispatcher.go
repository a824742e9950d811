package events

import (
	"context"
	"time"
)

// Dispatcher hands a domain event to whatever runs its side effects.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// InlineDispatcher routes events in-process and synchronously.
type InlineDispatcher struct {
	router *Router
	now    func() time.Time
}

// NewInlineDispatcher creates a dispatcher that feeds router directly.
func NewInlineDispatcher(router *Router) *InlineDispatcher {
	return &InlineDispatcher{router: router, now: time.Now}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, ev Event) error {
	env, err := NewEnvelope(ev, d.now())
	if err != nil {
		return err
	}
	return d.router.Route(ctx, env)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, ev Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, ev Event) error { return f(ctx, ev) }

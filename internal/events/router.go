package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"movie-social/internal/logger"
)

// Handler processes one decoded envelope.
type Handler func(ctx context.Context, env Envelope) error

// Router dispatches envelopes to the handler registered for their type.
type Router struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
	log      *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	return &Router{
		handlers: make(map[Type]Handler),
		log:      log,
	}
}

// Register sets the handler for t, replacing any previous one.
func (r *Router) Register(t Type, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// On registers a typed handler: the payload is decoded into T before fn runs.
func On[T any](r *Router, t Type, fn func(ctx context.Context, ev T) error) {
	r.Register(t, func(ctx context.Context, env Envelope) error {
		var ev T
		if err := env.Decode(&ev); err != nil {
			return err
		}
		return fn(ctx, ev)
	})
}

// Route runs the handler for env. Envelopes of an unknown type are skipped.
func (r *Router) Route(ctx context.Context, env Envelope) error {
	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("no handler for event type, skipping", zap.String("event_type", string(env.Type)))
		return nil
	}
	if err := h(ctx, env); err != nil {
		return fmt.Errorf("handle %s: %w", env.Type, err)
	}
	return nil
}

// HandleMessage decodes a raw envelope and routes it. Malformed input is
// logged and dropped: retrying it can never succeed.
func (r *Router) HandleMessage(ctx context.Context, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Error("dropping malformed event envelope", zap.Error(err), zap.ByteString("raw", raw))
		return nil
	}
	return r.Route(ctx, env)
}

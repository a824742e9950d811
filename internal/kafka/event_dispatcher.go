package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"movie-social/internal/events"
	"movie-social/internal/logger"
)

// EventDispatcher publishes domain events to the events topic, keyed by the
// event's subject so related events keep their order.
type EventDispatcher struct {
	producer MessageProducer
	topic    string
	log      *logger.Logger
	now      func() time.Time
}

var _ events.Dispatcher = (*EventDispatcher)(nil)

// NewEventDispatcher creates a Kafka backed events.Dispatcher.
func NewEventDispatcher(producer MessageProducer, topic string, log *logger.Logger) *EventDispatcher {
	return &EventDispatcher{producer: producer, topic: topic, log: log, now: time.Now}
}

func (d *EventDispatcher) Dispatch(ctx context.Context, ev events.Event) error {
	env, err := events.NewEnvelope(ev, d.now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := d.producer.SendMessage(ctx, d.topic, []byte(env.Key), raw); err != nil {
		return err
	}
	d.log.Debug("event dispatched", zap.String("event_type", string(env.Type)), zap.String("key", env.Key))
	return nil
}

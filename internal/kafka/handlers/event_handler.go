package kafkahandlers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"movie-social/internal/events"
	"movie-social/internal/logger"
)

// EventConsumerLogic feeds messages of the events topic into the router.
type EventConsumerLogic struct {
	router *events.Router
	log    *logger.Logger
}

// NewEventConsumerLogic creates a new instance of EventConsumerLogic.
func NewEventConsumerLogic(router *events.Router, log *logger.Logger) *EventConsumerLogic {
	if router == nil {
		panic("events router cannot be nil")
	}
	return &EventConsumerLogic{router: router, log: log}
}

// HandleEvent is the MessageHandler for the events topic. A fan-out error is
// returned for logging; the consumer skips the event and does not retry it.
func (h *EventConsumerLogic) HandleEvent(ctx context.Context, msg *kafka.Message) error {
	h.log.Debug("event message received", zap.ByteString("key", msg.Key))
	return h.router.HandleMessage(ctx, msg.Value)
}

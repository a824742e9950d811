package kafkahandlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
)

// PushConsumerLogic delivers pushes from the push topic to local sessions.
type PushConsumerLogic struct {
	local  imtypes.PushPublisher
	maxAge time.Duration
	log    *logger.Logger
}

// NewPushConsumerLogic creates a new instance of PushConsumerLogic. Frames
// whose broker timestamp is older than maxAge are dropped; 0 disables it.
func NewPushConsumerLogic(local imtypes.PushPublisher, maxAge time.Duration, log *logger.Logger) *PushConsumerLogic {
	if local == nil {
		panic("local push publisher cannot be nil")
	}
	return &PushConsumerLogic{local: local, maxAge: maxAge, log: log}
}

// HandlePush never asks for redelivery. A push carries the unread count of
// the moment it was produced, so late frames are dropped rather than shown.
func (h *PushConsumerLogic) HandlePush(ctx context.Context, msg *kafka.Message) error {
	if h.maxAge > 0 && !msg.Timestamp.IsZero() {
		if age := time.Since(msg.Timestamp); age > h.maxAge {
			h.log.Debug("dropping stale push message", zap.Duration("age", age))
			return nil
		}
	}
	var ev imtypes.PushEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.log.Error("dropping malformed push message", zap.Error(err), zap.ByteString("raw", msg.Value))
		return nil
	}
	if ev.RecipientID == 0 {
		h.log.Warn("push message without recipient, skipping", zap.String("event_type", string(ev.Type)))
		return nil
	}
	if err := h.local.Publish(ctx, ev.RecipientID, ev); err != nil {
		h.log.Warn("local push failed", zap.Uint("recipient_id", ev.RecipientID), zap.Error(err))
	}
	return nil
}

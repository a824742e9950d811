package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"movie-social/internal/imtypes"
)

// PushPublisher forwards pushes to the push servers over the push topic.
// Every push server instance consumes the whole topic and delivers to the
// sessions it holds.
type PushPublisher struct {
	producer MessageProducer
	topic    string
}

var _ imtypes.PushPublisher = (*PushPublisher)(nil)

// NewPushPublisher creates a publisher writing to topic.
func NewPushPublisher(producer MessageProducer, topic string) *PushPublisher {
	return &PushPublisher{producer: producer, topic: topic}
}

func (p *PushPublisher) Publish(ctx context.Context, userID uint, ev imtypes.PushEvent) error {
	ev.RecipientID = userID
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal push event: %w", err)
	}
	key := []byte(strconv.FormatUint(uint64(userID), 10))
	return p.producer.SendMessage(ctx, p.topic, key, payload)
}

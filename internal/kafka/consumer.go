package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"movie-social/internal/config"
	"movie-social/internal/logger"
)

// MessageHandler processes one consumed message. A non-nil error is logged and
// the message is skipped without a commit; the next successful commit on the
// partition moves past it, so handlers that need a retry must do it themselves.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
	// 新消费者组没有已提交 offset 时从哪里开始: earliest | latest
	offsetReset string
	log         *logger.Logger
}

// ConsumerOption customizes a consumer created by NewConfluentKafkaConsumer.
type ConsumerOption func(*confluentKafkaConsumer)

// WithOffsetReset sets auto.offset.reset. Empty keeps the default "earliest".
func WithOffsetReset(reset string) ConsumerOption {
	return func(c *confluentKafkaConsumer) {
		if reset != "" {
			c.offsetReset = reset
		}
	}
}

// NewConfluentKafkaConsumer creates a consumer; the group is chosen in Consume.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, log *logger.Logger, opts ...ConsumerOption) (MessageConsumer, error) {
	c := &confluentKafkaConsumer{cfg: cfg, offsetReset: "earliest", log: log}
	for _, opt := range opts {
		opt(c)
	}
	if c.offsetReset != "earliest" && c.offsetReset != "latest" {
		return nil, fmt.Errorf("kafka consumer: unsupported auto.offset.reset %q", c.offsetReset)
	}
	return c, nil
}

// NewPushConsumer creates the consumer for the push topic. Every push server
// instance uses its own group, so a group seen for the first time starts at
// the end of the topic instead of replaying pushes meant for earlier sessions.
func NewPushConsumer(cfg config.KafkaConfig, log *logger.Logger) (MessageConsumer, error) {
	reset := cfg.PushOffsetReset
	if reset == "" {
		reset = "latest"
	}
	return NewConfluentKafkaConsumer(cfg, log, WithOffsetReset(reset))
}

func (c *confluentKafkaConsumer) configMap(groupID string) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  c.offsetReset,
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}
	return configMap
}

// Consume blocks until ctx is canceled or a fatal error occurs. Offsets are
// committed only after handler succeeds, so a crash mid-handler redelivers.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	log := c.log.With(zap.String("group_id", groupID), zap.Strings("topics", topics))

	consumer, err := kafka.NewConsumer(c.configMap(groupID))
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log.Info("kafka consumer started", zap.String("offset_reset", c.offsetReset))

	for {
		select {
		case <-ctx.Done():
			log.Info("context canceled, consumer loop finished")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msgLog := log.With(
				zap.String("topic", *e.TopicPartition.Topic),
				zap.Int32("partition", e.TopicPartition.Partition),
				zap.String("offset", e.TopicPartition.Offset.String()),
			)
			if err := handler(ctx, e); err != nil {
				msgLog.Error("error processing kafka message, skipping", zap.Error(err))
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				msgLog.Warn("failed to commit offset", zap.Error(err))
			}
		case kafka.Error:
			log.Error("kafka consumer error", zap.Error(e), zap.Bool("fatal", e.IsFatal()), zap.Bool("retriable", e.IsRetriable()))
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Info("partitions assigned", zap.Int("count", len(e.Partitions)))
			c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Info("partitions revoked", zap.Int("count", len(e.Partitions)))
			c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.log.Warn("error closing kafka consumer", zap.String("group_id", c.groupID), zap.Error(err))
	} else {
		c.log.Info("kafka consumer closed", zap.String("group_id", c.groupID))
	}
	c.consumer = nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// KafkaPublisher produces JSON-encoded events to a single topic, keyed by the
// originating account so one account's events stay ordered.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
	done     chan struct{}
}

// NewKafkaPublisher connects a producer to broker.
func NewKafkaPublisher(broker, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	kp := &KafkaPublisher{
		producer: p,
		topic:    topic,
		logger:   logger.With("component", "events"),
		done:     make(chan struct{}),
	}
	go kp.watchDeliveries()
	return kp, nil
}

func (k *KafkaPublisher) watchDeliveries() {
	defer close(k.done)
	for ev := range k.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				k.logger.Warn("kafka delivery failed", "topic", k.topic, "error", e.TopicPartition.Error)
			}
		case kafka.Error:
			k.logger.Warn("kafka producer error", "error", e)
		}
	}
}

// Publish enqueues the event. Delivery failures are logged asynchronously.
func (k *KafkaPublisher) Publish(ctx context.Context, event PredictionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.NameOrig),
		Value:          payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

// Close flushes outstanding messages for up to five seconds and shuts down.
func (k *KafkaPublisher) Close() {
	if remaining := k.producer.Flush(5000); remaining > 0 {
		k.logger.Warn("kafka close with undelivered messages", "count", remaining)
	}
	k.producer.Close()
	<-k.done
}

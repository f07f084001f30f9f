package events

import (
	"context"
	"encoding/json"
	"fmt"

	"residency/internal/platform/kafka/producer"
)

// KafkaPublisher writes events to a Kafka topic keyed by session id, so all
// events of one session land on one partition in commit order.
type KafkaPublisher struct {
	producer *producer.Producer
	topic    string
}

func NewKafkaPublisher(p *producer.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.SessionID.String()),
		Value: value,
		Headers: map[string]string{
			"event_type": event.Type,
			"event_id":   event.ID.String(),
		},
	})
}

var _ Publisher = (*KafkaPublisher)(nil)

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const metadataOccurredAt = "occurred_at"

// WatermillPublisher publishes each event on a topic named after its type.
type WatermillPublisher struct {
	publisher message.Publisher
}

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(metadataOccurredAt, event.Timestamp().Format(time.RFC3339Nano))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(event.EventType(), msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", event.EventType(), err)
	}
	return nil
}

// FromMessage rebuilds an event received on topic.
func FromMessage(topic string, msg *message.Message) (BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	occurredAt := time.Now().UTC()
	if raw := msg.Metadata.Get(metadataOccurredAt); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = ts
		}
	}

	return BaseEvent{Type: topic, Data: payload, OccurredAt: occurredAt}, nil
}

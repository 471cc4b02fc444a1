package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisherRoundTrip(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "AUDIT_CREATED")
	require.NoError(t, err)

	event := NewEvent("AUDIT_CREATED", map[string]interface{}{"audit_id": "a-1"})
	require.NoError(t, NewWatermillPublisher(pubSub).Publish(ctx, event))

	select {
	case msg := <-messages:
		got, err := FromMessage("AUDIT_CREATED", msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, "AUDIT_CREATED", got.EventType())
		assert.Equal(t, "a-1", got.Payload()["audit_id"])
		assert.True(t, event.Timestamp().Equal(got.Timestamp()))
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestFromMessageRejectsGarbage(t *testing.T) {
	msg := messageWithPayload([]byte("not json"))
	_, err := FromMessage("X", msg)
	assert.Error(t, err)
}

func messageWithPayload(payload []byte) *message.Message {
	return message.NewMessage(watermill.NewUUID(), payload)
}

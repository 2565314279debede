package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, TopicUserDeactivated)
	require.NoError(t, err)

	pub := NewWatermillPublisher(pubSub)
	require.NoError(t, pub.PublishUserDeactivated(ctx, "GABC"))

	select {
	case msg := <-messages:
		var event UserEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "GABC", event.Address)
		assert.False(t, event.At.IsZero())
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestWatermillPublisherLogin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, TopicLogin)
	require.NoError(t, err)

	require.NoError(t, NewWatermillPublisher(pubSub).PublishLogin(ctx, "GABC", "sid"))

	select {
	case msg := <-messages:
		var event SessionEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "GABC", event.Address)
		assert.Equal(t, "sid", event.SessionID)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

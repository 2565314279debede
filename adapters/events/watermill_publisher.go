package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/remitwise/ports"
)

const (
	TopicLogin           = "remitwise.user.login"
	TopicLogout          = "remitwise.session.logout"
	TopicUserDeactivated = "remitwise.user.deactivated"
	TopicUserReactivated = "remitwise.user.reactivated"
	TopicUserPurged      = "remitwise.user.purged"
)

// SessionEvent is published on login and logout
type SessionEvent struct {
	Address   string    `json:"address"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// UserEvent is published on user lifecycle changes
type UserEvent struct {
	Address string    `json:"address"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string, sessionID string) error {
	return p.publish(ctx, TopicLogin, SessionEvent{Address: address, SessionID: sessionID, At: time.Now().UTC()})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, sessionID string) error {
	return p.publish(ctx, TopicLogout, SessionEvent{Address: address, SessionID: sessionID, At: time.Now().UTC()})
}

func (p *WatermillPublisher) PublishUserDeactivated(ctx context.Context, address string) error {
	return p.publish(ctx, TopicUserDeactivated, UserEvent{Address: address, At: time.Now().UTC()})
}

func (p *WatermillPublisher) PublishUserReactivated(ctx context.Context, address string) error {
	return p.publish(ctx, TopicUserReactivated, UserEvent{Address: address, At: time.Now().UTC()})
}

func (p *WatermillPublisher) PublishUserPurged(ctx context.Context, address string) error {
	return p.publish(ctx, TopicUserPurged, UserEvent{Address: address, At: time.Now().UTC()})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string) error   { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error  { return nil }
func (NopPublisher) PublishUserDeactivated(context.Context, string) error { return nil }
func (NopPublisher) PublishUserReactivated(context.Context, string) error { return nil }
func (NopPublisher) PublishUserPurged(context.Context, string) error      { return nil }

// Package events carries the out-of-band change notifications emitted after
// every successful mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// ChangeEvent reports that one record of an entity changed.
type ChangeEvent struct {
	EventID    string    `json:"eventId"`
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	EntityID   int64     `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewChangeEvent stamps a new event with a random id and the current time.
func NewChangeEvent(entity string, action Action, id int64) ChangeEvent {
	return ChangeEvent{
		EventID:    uuid.New().String(),
		Entity:     entity,
		Action:     action,
		EntityID:   id,
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey is "<entity>.<action>".
func (e ChangeEvent) RoutingKey() string {
	return e.Entity + "." + string(e.Action)
}

// Publisher delivers change events. Implementations must not block for long;
// callers treat failures as warnings.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

// Broker is the subset of the RabbitMQ client used to publish.
type Broker interface {
	Publish(routingKey string, body []byte) error
}

// BrokerPublisher publishes events as JSON through a message broker.
type BrokerPublisher struct {
	broker Broker
}

func NewBrokerPublisher(broker Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

func (p *BrokerPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.RoutingKey(), err)
	}
	if err := p.broker.Publish(event.RoutingKey(), body); err != nil {
		return fmt.Errorf("failed to publish %s event for id %d: %w", event.RoutingKey(), event.EntityID, err)
	}
	return nil
}

// LogDelivery decodes a consumed change event and writes it to the log.
func LogDelivery(msg amqp.Delivery) error {
	var event ChangeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("unmarshal change event: %w", err)
	}
	log.Printf("Change event %s: %s id=%d at %s", event.EventID, event.RoutingKey(), event.EntityID, event.OccurredAt.Format(time.RFC3339))
	return nil
}

package events_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"ridesharing/internal/events"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func TestNewChangeEvent(t *testing.T) {
	event := events.NewChangeEvent("ride", events.Deleted, 42)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "ride.deleted", event.RoutingKey())
	assert.Equal(t, int64(42), event.EntityID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestBrokerPublisher_Publish(t *testing.T) {
	broker := new(MockBroker)
	publisher := events.NewBrokerPublisher(broker)
	event := events.NewChangeEvent("rating", events.Created, 3)

	broker.On("Publish", "rating.created", mock.MatchedBy(func(body []byte) bool {
		var decoded events.ChangeEvent
		return json.Unmarshal(body, &decoded) == nil && decoded.EventID == event.EventID && decoded.EntityID == 3
	})).Return(nil).Once()

	assert.NoError(t, publisher.Publish(context.Background(), event))
	broker.AssertExpectations(t)
}

func TestBrokerPublisher_PublishFailure(t *testing.T) {
	broker := new(MockBroker)
	publisher := events.NewBrokerPublisher(broker)

	broker.On("Publish", "ride.updated", mock.Anything).Return(fmt.Errorf("channel closed")).Once()

	err := publisher.Publish(context.Background(), events.NewChangeEvent("ride", events.Updated, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
	broker.AssertExpectations(t)
}

func TestBrokerPublisher_CancelledContext(t *testing.T) {
	broker := new(MockBroker)
	publisher := events.NewBrokerPublisher(broker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, publisher.Publish(ctx, events.NewChangeEvent("ride", events.Updated, 1)), context.Canceled)
	broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLogDelivery(t *testing.T) {
	body, err := json.Marshal(events.NewChangeEvent("message", events.Created, 9))
	require.NoError(t, err)

	assert.NoError(t, events.LogDelivery(amqp.Delivery{Body: body}))
	assert.Error(t, events.LogDelivery(amqp.Delivery{Body: []byte("not json")}))
}

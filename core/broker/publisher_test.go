package broker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"listing-sync/core/broker"
	"listing-sync/core/broker/mocks"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPublisher(t *testing.T) {
	t.Run("DeclaresExchange", func(t *testing.T) {
		ch := new(mocks.Channel)
		ch.On("ExchangeDeclare", "listing_sync", "topic", true, false, false, false, amqp.Table(nil)).Return(nil)

		p, err := broker.NewPublisher(ch, broker.Config{Exchange: "listing_sync"}, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, p)
		ch.AssertExpectations(t)
	})

	t.Run("MissingExchange", func(t *testing.T) {
		_, err := broker.NewPublisher(new(mocks.Channel), broker.Config{}, nil)
		assert.Error(t, err)
	})

	t.Run("DeclareFails", func(t *testing.T) {
		ch := new(mocks.Channel)
		ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("access refused"))
		ch.On("Close").Return(nil)

		_, err := broker.NewPublisher(ch, broker.Config{Exchange: "x", ExchangeType: "direct"}, nil)
		assert.ErrorContains(t, err, "access refused")
		ch.AssertCalled(t, "Close")
	})
}

func TestPublisher_PublishJSON(t *testing.T) {
	ctx := context.Background()
	ch := new(mocks.Channel)
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ch.On("PublishWithContext", ctx, "listing_sync", "run.completed", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var body map[string]string
		return json.Unmarshal(msg.Body, &body) == nil &&
			body["run_id"] == "r1" &&
			msg.MessageId == "r1" &&
			msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent
	})).Return(nil)
	ch.On("Close").Return(nil)

	p, err := broker.NewPublisher(ch, broker.Config{Exchange: "listing_sync", RoutingKey: "run.completed"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.PublishJSON(ctx, p.RoutingKey(), "r1", map[string]string{"run_id": "r1"}))
	require.NoError(t, p.Close())
	ch.AssertExpectations(t)
}

func TestPublisher_PublishFails(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))

	p, err := broker.NewPublisher(ch, broker.Config{Exchange: "listing_sync"}, nil)
	require.NoError(t, err)

	err = p.PublishJSON(context.Background(), "run.completed", "r1", struct{}{})
	assert.ErrorContains(t, err, "channel closed")
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

type channelMock struct {
	mock.Mock
}

func (m *channelMock) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishNotification_Envelope(t *testing.T) {
	t.Run("json body with id and timestamp", func(t *testing.T) {
		ch := new(channelMock)
		var sent []amqp.Publishing
		ch.On("Publish", ExchangeNotifications, RoutingReceipt, false, false, mock.Anything).
			Run(func(args mock.Arguments) { sent = append(sent, args.Get(4).(amqp.Publishing)) }).
			Return(nil).Twice()

		require.NoError(t, PublishNotification(ch, RoutingReceipt, map[string]int{"price": 5}))
		require.NoError(t, PublishNotification(ch, RoutingReceipt, map[string]int{"price": 5}))
		require.Len(t, sent, 2)

		msg := sent[0]
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
		assert.False(t, msg.Timestamp.IsZero())
		_, err := uuid.Parse(msg.MessageId)
		assert.NoError(t, err)
		assert.NotEqual(t, sent[0].MessageId, sent[1].MessageId)

		var body map[string]int
		require.NoError(t, json.Unmarshal(msg.Body, &body))
		assert.Equal(t, 5, body["price"])
		ch.AssertExpectations(t)
	})

	t.Run("publish error names the route", func(t *testing.T) {
		ch := new(channelMock)
		ch.On("Publish", ExchangeNotifications, RoutingUpcoming, false, false, mock.Anything).
			Return(errors.New("channel closed")).Once()

		err := PublishNotification(ch, RoutingUpcoming, struct{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notifications/upcoming")
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("unserializable message", func(t *testing.T) {
		ch := new(channelMock)

		err := PublishNotification(ch, RoutingReceipt, struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

// getOne забирает одно сообщение из очереди, дожидаясь его появления
func getOne(t *testing.T, ch *amqp.Channel, queue string) amqp.Delivery {
	t.Helper()
	var got amqp.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := ch.Get(queue, true)
		if err != nil || !ok {
			return false
		}
		got = d
		return true
	}, 5*time.Second, 50*time.Millisecond, "no message in %s", queue)
	return got
}

func TestPublishNotification_Broker(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	for _, q := range GetNotificationQueues() {
		_, err := ch.QueuePurge(q.QueueName, false)
		require.NoError(t, err)
	}

	receipt := models.UnlockReceipt{
		UserUID:     "uid-1",
		Email:       "reader@example.com",
		VariantKind: models.VariantExclusive,
		Price:       5,
		Balance:     7,
		ChargedAt:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, PublishNotification(ch, RoutingReceipt, receipt))

	d := getOne(t, ch, QueueReceipt)
	assert.Equal(t, "application/json", d.ContentType)
	assert.NotEmpty(t, d.MessageId)
	assert.False(t, d.Timestamp.IsZero())

	var got models.UnlockReceipt
	require.NoError(t, json.Unmarshal(d.Body, &got))
	assert.Equal(t, receipt, got)

	// receipt-сообщения не попадают в очередь напоминаний
	upcoming, err := ch.QueueInspect(QueueUpcoming)
	require.NoError(t, err)
	assert.Equal(t, 0, upcoming.Messages)

	expiring := models.ExpiringSubscription{Email: "reader@example.com", Username: "reader", Level: models.SubscriptionUltra}
	require.NoError(t, PublishNotification(ch, RoutingUpcoming, expiring))

	d = getOne(t, ch, QueueUpcoming)
	var gotExpiring models.ExpiringSubscription
	require.NoError(t, json.Unmarshal(d.Body, &gotExpiring))
	assert.Equal(t, expiring.Email, gotExpiring.Email)
	assert.Equal(t, models.SubscriptionUltra, gotExpiring.Level)
}

package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	exchange string
	key      string
	msgs     []amqp091.Publishing
	err      error
}

func (r *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.exchange = exchange
	r.key = key
	r.msgs = append(r.msgs, msg)
	return nil
}

var published = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testClient(ch channel) *Client {
	return &Client{channel: ch, exchange: "pocketplan", queue: "transactions", clock: func() time.Time { return published }}
}

func TestClient_Publish(t *testing.T) {
	t.Run("should publish persistent json to the queue's routing key", func(t *testing.T) {
		ch := &recordingChannel{}
		client := testClient(ch)

		// when
		err := client.Publish(context.Background(), NewTransactionMessage(event_bus.TransactionCommitted{
			Id:         3,
			UserId:     1,
			CategoryId: 10,
			Kind:       "expense",
			Amount:     decimal.RequireFromString("12.5"),
			Date:       time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Confirmed:  true,
		}))

		// then
		require.NoError(t, err)
		require.Len(t, ch.msgs, 1)
		assert.Equal(t, "pocketplan", ch.exchange)
		assert.Equal(t, "transactions", ch.key)
		msg := ch.msgs[0]
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
		assert.Equal(t, "transaction.committed", msg.Type)
		assert.Equal(t, published, msg.Timestamp)
		assert.JSONEq(t, `{
			"type": "transaction.committed",
			"userId": 1,
			"payload": {
				"id": 3, "categoryId": 10, "kind": "expense", "amount": "12.50",
				"date": "2025-03-14", "description": "", "confirmed": true, "edit": false
			}
		}`, string(msg.Body))
	})

	t.Run("should wrap channel errors", func(t *testing.T) {
		boom := errors.New("channel closed")
		client := testClient(&recordingChannel{err: boom})

		// when
		err := client.Publish(context.Background(), NewCategoryDeletedMessage(event_bus.CategoryDeleted{Id: 1}))

		// then
		assert.ErrorIs(t, err, boom)
	})
}

func TestForward(t *testing.T) {
	// given
	bus := event_bus.NewEventBus()
	ch := &recordingChannel{}
	unsubscribe := Forward(bus, testClient(ch))

	// when
	require.NoError(t, bus.Publish(event_bus.NewEvent(context.Background(), event_bus.CategoryDeletedType,
		event_bus.CategoryDeleted{Id: 4, UserId: 2, PlansDeleted: 1, TransactionsDeleted: 3})))
	unsubscribe()
	require.NoError(t, bus.Publish(event_bus.NewEvent(context.Background(), event_bus.TransactionCommittedType,
		event_bus.TransactionCommitted{Id: 9})))

	// then
	require.Len(t, ch.msgs, 1)
	var body struct {
		Type    string                 `json:"type"`
		UserId  int                    `json:"userId"`
		Payload CategoryDeletedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &body))
	assert.Equal(t, "category.deleted", body.Type)
	assert.Equal(t, 2, body.UserId)
	assert.Equal(t, CategoryDeletedPayload{Id: 4, PlansDeleted: 1, TransactionsDeleted: 3}, body.Payload)
}

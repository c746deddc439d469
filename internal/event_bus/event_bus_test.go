package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should call handlers in subscription order", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var calls []string
		bus.Subscribe(CategoryDeletedType, func(e Event) error {
			calls = append(calls, "first")
			return nil
		})
		bus.Subscribe(CategoryDeletedType, func(e Event) error {
			calls = append(calls, "second")
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), CategoryDeletedType, CategoryDeleted{Id: 1}))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("should keep running handlers after a failure and report it", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		bus.Subscribe(CategoryDeletedType, func(e Event) error {
			return errors.New("boom")
		})
		bus.Subscribe(CategoryDeletedType, func(e Event) error {
			panic("unexpected")
		})
		bus.Subscribe(CategoryDeletedType, func(e Event) error {
			called = true
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), CategoryDeletedType, nil))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 handler(s) failed")
		assert.Contains(t, err.Error(), "boom")
		assert.True(t, called)
	})

	t.Run("should not call unsubscribed handler", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		unsubscribe := bus.Subscribe(CategoryDeletedType, func(e Event) error {
			called = true
			return nil
		})
		unsubscribe()

		// when
		err := bus.Publish(NewEvent(context.Background(), CategoryDeletedType, nil))

		// then
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("should fail when context is already cancelled", func(t *testing.T) {
		// given
		bus := NewEventBus()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := bus.Publish(NewEvent(ctx, CategoryDeletedType, nil))

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSubscribeTyped(t *testing.T) {
	// given
	bus := NewEventBus()
	var received []TransactionCommitted
	SubscribeTyped(bus, TransactionCommittedType, func(e EventT[TransactionCommitted]) error {
		received = append(received, e.Data)
		return nil
	})

	// when
	err1 := bus.Publish(NewEvent(context.Background(), TransactionCommittedType, TransactionCommitted{Id: 5}))
	err2 := bus.Publish(NewEvent(context.Background(), TransactionCommittedType, "wrong payload"))

	// then
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Len(t, received, 1)
	assert.Equal(t, 5, received[0].Id)
}

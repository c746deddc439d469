package amqp

import (
	"context"

	"github.com/pocketplan/pocketplan/internal/event_bus"
)

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Forward subscribes to committed transactions and deleted categories and hands them to p.
// The returned function removes both subscriptions.
func Forward(bus *event_bus.EventBus, p Publisher) (unsubscribe func()) {
	unsubTx := event_bus.SubscribeTyped(bus, event_bus.TransactionCommittedType,
		func(e event_bus.EventT[event_bus.TransactionCommitted]) error {
			return p.Publish(e.Context(), NewTransactionMessage(e.Data))
		})
	unsubCategory := event_bus.SubscribeTyped(bus, event_bus.CategoryDeletedType,
		func(e event_bus.EventT[event_bus.CategoryDeleted]) error {
			return p.Publish(e.Context(), NewCategoryDeletedMessage(e.Data))
		})
	return func() {
		unsubTx()
		unsubCategory()
	}
}

package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionCommittedType EventType = "transaction.committed"
	CategoryDeletedType      EventType = "category.deleted"
)

// TransactionCommitted is published after a transaction row has been inserted or updated.
type TransactionCommitted struct {
	Id          int
	UserId      int
	CategoryId  int
	Kind        string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	// Confirmed is true when the write went through the confirmation endpoint.
	Confirmed bool
	Edit      bool
}

type CategoryDeleted struct {
	Id     int
	UserId int
	// PlansDeleted and TransactionsDeleted count the rows removed together with the category.
	PlansDeleted        int
	TransactionsDeleted int
}

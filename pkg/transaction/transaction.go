package transaction

import (
	"time"

	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
)

// Transaction is a committed money movement. Amount is always positive, the direction comes
// from Kind.
type Transaction struct {
	Id          int
	CategoryId  int
	Kind        category.Kind
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// Submission is a transaction offered for commit. A non-zero Id edits that transaction.
type Submission struct {
	Id          int
	CategoryId  int
	Kind        category.Kind
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

func (s Submission) IsEdit() bool {
	return s.Id != 0
}

type Status string

const (
	StatusCommitted         Status = "committed"
	StatusNeedsConfirmation Status = "needs_confirmation"
)

const (
	ReasonNoPlan    = "No plan exists for this category this month"
	ReasonOverLimit = "Exceeds monthly limit"
)

// Outcome of a submission. Id is set when committed, Reason when confirmation is needed.
type Outcome struct {
	Status Status
	Id     int
	Reason string
}

func committed(id int) Outcome {
	return Outcome{Status: StatusCommitted, Id: id}
}

func needsConfirmation(reason string) Outcome {
	return Outcome{Status: StatusNeedsConfirmation, Reason: reason}
}

// Filter narrows List. Zero values mean no restriction; To is exclusive.
type Filter struct {
	Kind       category.Kind
	CategoryId int
	From       time.Time
	To         time.Time
}

const maxDescriptionLen = 255

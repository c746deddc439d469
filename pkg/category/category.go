package category

import (
	"fmt"
	"strings"
)

// Kind tells whether a category, plan or transaction is money coming in or going out.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("invalid kind %q, expected income or expense", s)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

type Category struct {
	Id    int
	Name  string
	Color string
	Icon  string
	Kind  Kind
}

const (
	DefaultColor = "#9E9E9E"
	DefaultIcon  = "category"
	maxNameLen   = 50
)

package plan

import (
	"fmt"
	"time"

	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
)

// Plan is the amount a user expects to spend (expense) or earn (income) in one category during
// one month.
type Plan struct {
	Id           int
	CategoryId   int
	CategoryName string
	Kind         category.Kind
	Amount       decimal.Decimal
	Period       time.Time
}

// Item is one row of a SaveAll request.
type Item struct {
	CategoryId int
	Amount     decimal.Decimal
}

// CategoryTotal is the sum of one category's plans over a year.
type CategoryTotal struct {
	CategoryId   int
	CategoryName string
	Amount       decimal.Decimal
}

const periodLayout = "2006-01"

// PeriodOf returns the first day of the month containing t.
func PeriodOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParsePeriod parses a "YYYY-MM" month.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q, expected YYYY-MM", s)
	}
	return t, nil
}

func FormatPeriod(period time.Time) string {
	return period.Format(periodLayout)
}

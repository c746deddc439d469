package report

import (
	"sort"
	"time"

	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/transaction"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Progress is spent relative to planned, in percent. NoPlan is set instead when nothing was planned.
type Progress struct {
	Percent decimal.Decimal
	NoPlan  bool
}

type DailyTotal struct {
	Date   time.Time
	Amount decimal.Decimal
}

type MonthlyTotal struct {
	Month  time.Time
	Amount decimal.Decimal
}

type CategorySummary struct {
	CategoryId   int
	CategoryName string
	Planned      decimal.Decimal
	Actual       decimal.Decimal
	Remaining    decimal.Decimal
	Progress     Progress
}

type MonthlySummary struct {
	Kind           category.Kind
	Period         time.Time
	Categories     []CategorySummary
	Days           []DailyTotal
	TotalPlanned   decimal.Decimal
	TotalActual    decimal.Decimal
	TotalRemaining decimal.Decimal
	Progress       Progress
}

type AnnualSummary struct {
	Kind         category.Kind
	Year         int
	Months       []MonthlyTotal
	Categories   []CategorySummary
	TotalPlanned decimal.Decimal
	TotalActual  decimal.Decimal
	Progress     Progress
}

func PercentOfPlan(spent, planned decimal.Decimal) Progress {
	if planned.IsZero() {
		return Progress{NoPlan: true}
	}
	return Progress{Percent: spent.Mul(hundred).Div(planned).Round(2)}
}

func Total(transactions []transaction.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}

func SumByCategory(transactions []transaction.Transaction) map[int]decimal.Decimal {
	sums := make(map[int]decimal.Decimal)
	for _, t := range transactions {
		sums[t.CategoryId] = sums[t.CategoryId].Add(t.Amount)
	}
	return sums
}

// SumByDay returns one entry per day that has transactions, oldest first.
func SumByDay(transactions []transaction.Transaction) []DailyTotal {
	sums := make(map[time.Time]decimal.Decimal)
	for _, t := range transactions {
		d := time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
		sums[d] = sums[d].Add(t.Amount)
	}
	days := make([]DailyTotal, 0, len(sums))
	for d, amount := range sums {
		days = append(days, DailyTotal{Date: d, Amount: amount})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// SumByMonth returns twelve entries for year, months without transactions included as zero.
func SumByMonth(transactions []transaction.Transaction, year int) []MonthlyTotal {
	months := make([]MonthlyTotal, 12)
	for i := range months {
		months[i] = MonthlyTotal{Month: time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), Amount: decimal.Zero}
	}
	for _, t := range transactions {
		if t.Date.Year() != year {
			continue
		}
		idx := int(t.Date.Month()) - 1
		months[idx].Amount = months[idx].Amount.Add(t.Amount)
	}
	return months
}

// summarizeCategories lines up planned and actual amounts for every category, in the order given.
func summarizeCategories(categories []category.Category, planned map[int]decimal.Decimal, actual map[int]decimal.Decimal) []CategorySummary {
	result := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		p := planned[c.Id]
		a := actual[c.Id]
		result = append(result, CategorySummary{
			CategoryId:   c.Id,
			CategoryName: c.Name,
			Planned:      p,
			Actual:       a,
			Remaining:    p.Sub(a),
			Progress:     PercentOfPlan(a, p),
		})
	}
	return result
}

func plannedByCategory(plans []plan.Plan) map[int]decimal.Decimal {
	result := make(map[int]decimal.Decimal, len(plans))
	for _, p := range plans {
		result[p.CategoryId] = result[p.CategoryId].Add(p.Amount)
	}
	return result
}

func sumPlanned(totals map[int]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range totals {
		sum = sum.Add(amount)
	}
	return sum
}

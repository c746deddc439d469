package report

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/transaction"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type PlanReader interface {
	GetForPeriod(ctx context.Context, kind category.Kind, period time.Time) ([]plan.Plan, error)
	GetAnnualSummary(ctx context.Context, kind category.Kind, year int) ([]plan.CategoryTotal, error)
}

type TransactionLister interface {
	List(ctx context.Context, filter transaction.Filter) ([]transaction.Transaction, error)
}

type CategoryLister interface {
	ListAll(ctx context.Context, kind category.Kind) ([]category.Category, error)
}

type Service interface {
	MonthlySummary(ctx context.Context, kind category.Kind, period time.Time) (MonthlySummary, error)
	AnnualSummary(ctx context.Context, kind category.Kind, year int) (AnnualSummary, error)
}

type ServiceImpl struct {
	plans        PlanReader
	transactions TransactionLister
	categories   CategoryLister
}

func NewService(plans PlanReader, transactions TransactionLister, categories CategoryLister) *ServiceImpl {
	return &ServiceImpl{plans: plans, transactions: transactions, categories: categories}
}

func (s *ServiceImpl) MonthlySummary(ctx context.Context, kind category.Kind, period time.Time) (MonthlySummary, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return MonthlySummary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !kind.Valid() {
		return MonthlySummary{}, validation.New("kind", "must be income or expense")
	}
	period = plan.PeriodOf(period)

	var plans []plan.Plan
	var transactions []transaction.Transaction
	var categories []category.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		plans, err = s.plans.GetForPeriod(gctx, kind, period)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = s.transactions.List(gctx, transaction.Filter{Kind: kind, From: period, To: period.AddDate(0, 1, 0)})
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.categories.ListAll(gctx, kind)
		return err
	})
	if err := g.Wait(); err != nil {
		return MonthlySummary{}, err
	}
	log.Debugf("monthly %s summary for %s: %d plans, %d transactions", kind, plan.FormatPeriod(period), len(plans), len(transactions))

	planned := plannedByCategory(plans)
	totalPlanned := sumPlanned(planned)
	totalActual := Total(transactions)
	return MonthlySummary{
		Kind:           kind,
		Period:         period,
		Categories:     summarizeCategories(categories, planned, SumByCategory(transactions)),
		Days:           SumByDay(transactions),
		TotalPlanned:   totalPlanned,
		TotalActual:    totalActual,
		TotalRemaining: totalPlanned.Sub(totalActual),
		Progress:       PercentOfPlan(totalActual, totalPlanned),
	}, nil
}

func (s *ServiceImpl) AnnualSummary(ctx context.Context, kind category.Kind, year int) (AnnualSummary, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return AnnualSummary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !kind.Valid() {
		return AnnualSummary{}, validation.New("kind", "must be income or expense")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	var plannedTotals []plan.CategoryTotal
	var transactions []transaction.Transaction
	var categories []category.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		plannedTotals, err = s.plans.GetAnnualSummary(gctx, kind, year)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = s.transactions.List(gctx, transaction.Filter{Kind: kind, From: from, To: from.AddDate(1, 0, 0)})
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.categories.ListAll(gctx, kind)
		return err
	})
	if err := g.Wait(); err != nil {
		return AnnualSummary{}, err
	}

	planned := make(map[int]decimal.Decimal, len(plannedTotals))
	for _, total := range plannedTotals {
		planned[total.CategoryId] = total.Amount
	}
	totalPlanned := sumPlanned(planned)
	totalActual := Total(transactions)
	return AnnualSummary{
		Kind:         kind,
		Year:         year,
		Months:       SumByMonth(transactions, year),
		Categories:   summarizeCategories(categories, planned, SumByCategory(transactions)),
		TotalPlanned: totalPlanned,
		TotalActual:  totalActual,
		Progress:     PercentOfPlan(totalActual, totalPlanned),
	}, nil
}

package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/transaction"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx          context.Context
	service      *ServiceImpl
	plans        *plan.ServiceImpl
	transactions *transaction.ServiceImpl
	food         category.Category
	rent         category.Category
	fun          category.Category
}

func setupService(t *testing.T) fixture {
	ctx := user.WithUser(context.Background(), user.User{Id: 1})
	bus := event_bus.NewEventBus()
	categories := category.NewService(category.NewRepositoryStub(), bus)
	planRepo := plan.NewRepositoryStub()
	transactionRepo := transaction.NewRepositoryStub()

	create := func(name string) category.Category {
		c, err := categories.Create(ctx, category.Category{Name: name, Kind: category.Expense})
		require.NoError(t, err)
		planRepo.AddCategory(1, c)
		transactionRepo.AddCategory(1, c.Id, c.Kind)
		return c
	}
	f := fixture{ctx: ctx, food: create("Food"), rent: create("Rent"), fun: create("Fun")}
	f.plans = plan.NewService(planRepo)
	f.transactions = transaction.NewService(transactionRepo, bus)
	f.service = NewService(f.plans, f.transactions, categories)
	return f
}

func (f fixture) spend(t *testing.T, c category.Category, amount string, on time.Time) {
	_, err := f.transactions.Confirm(f.ctx, transaction.Submission{
		CategoryId: c.Id, Kind: category.Expense, Amount: money(amount), Date: on,
	})
	require.NoError(t, err)
}

func TestServiceImpl_MonthlySummary(t *testing.T) {
	// given
	f := setupService(t)
	march := date(2025, time.March, 1)
	_, err := f.plans.SaveAll(f.ctx, category.Expense, march, []plan.Item{
		{CategoryId: f.food.Id, Amount: money("400")},
		{CategoryId: f.rent.Id, Amount: money("1000")},
	})
	require.NoError(t, err)
	f.spend(t, f.food, "100", date(2025, time.March, 3))
	f.spend(t, f.food, "50.50", date(2025, time.March, 3))
	f.spend(t, f.rent, "1000", date(2025, time.March, 1))
	f.spend(t, f.fun, "20", date(2025, time.March, 15))
	f.spend(t, f.fun, "999", date(2025, time.April, 1))

	// when
	summary, err := f.service.MonthlySummary(f.ctx, category.Expense, date(2025, time.March, 20))

	// then
	require.NoError(t, err)
	assert.Equal(t, march, summary.Period)
	require.Len(t, summary.Categories, 3)

	food, fun, rent := summary.Categories[0], summary.Categories[1], summary.Categories[2]
	assert.Equal(t, "Food", food.CategoryName)
	assert.Equal(t, "Fun", fun.CategoryName)
	assert.True(t, fun.Progress.NoPlan)
	assert.Equal(t, "-20", fun.Remaining.String())
	assert.Equal(t, "150.5", food.Actual.String())
	assert.Equal(t, "249.5", food.Remaining.String())
	assert.Equal(t, "37.63", food.Progress.Percent.String())
	assert.Equal(t, "100", rent.Progress.Percent.String())

	assert.Equal(t, "1400", summary.TotalPlanned.String())
	assert.Equal(t, "1170.5", summary.TotalActual.String())
	require.Len(t, summary.Days, 3)
	assert.Equal(t, "150.5", summary.Days[1].Amount.String())
}

func TestServiceImpl_AnnualSummary(t *testing.T) {
	// given
	f := setupService(t)
	for _, month := range []time.Month{time.January, time.February} {
		_, err := f.plans.SaveAll(f.ctx, category.Expense, date(2025, month, 1), []plan.Item{
			{CategoryId: f.food.Id, Amount: money("300")},
		})
		require.NoError(t, err)
	}
	f.spend(t, f.food, "200", date(2025, time.January, 10))
	f.spend(t, f.food, "250", date(2025, time.February, 10))
	f.spend(t, f.food, "75", date(2024, time.December, 10))

	// when
	summary, err := f.service.AnnualSummary(f.ctx, category.Expense, 2025)

	// then
	require.NoError(t, err)
	require.Len(t, summary.Months, 12)
	assert.Equal(t, "200", summary.Months[0].Amount.String())
	assert.Equal(t, "250", summary.Months[1].Amount.String())
	assert.Equal(t, "600", summary.TotalPlanned.String())
	assert.Equal(t, "450", summary.TotalActual.String())
	assert.Equal(t, "75", summary.Progress.Percent.String())
}

type failingLister struct{}

func (failingLister) List(context.Context, transaction.Filter) ([]transaction.Transaction, error) {
	return nil, errors.New("database is down")
}

func TestServiceImpl_MonthlySummary_PropagatesErrors(t *testing.T) {
	// given
	f := setupService(t)
	service := NewService(f.plans, failingLister{}, category.NewService(category.NewRepositoryStub(), event_bus.NewEventBus()))

	// when
	_, err := service.MonthlySummary(f.ctx, category.Expense, date(2025, time.March, 1))

	// then
	assert.EqualError(t, err, "database is down")
}

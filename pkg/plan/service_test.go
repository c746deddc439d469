package plan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func setupService() (*ServiceImpl, context.Context) {
	repo := NewRepositoryStub()
	repo.AddCategory(1, category.Category{Id: 10, Name: "Food", Kind: category.Expense})
	repo.AddCategory(1, category.Category{Id: 11, Name: "Rent", Kind: category.Expense})
	repo.AddCategory(1, category.Category{Id: 20, Name: "Salary", Kind: category.Income})
	repo.AddCategory(2, category.Category{Id: 30, Name: "Foreign", Kind: category.Expense})
	return NewService(repo), user.WithUser(context.Background(), user.User{Id: 1})
}

func TestServiceImpl_SaveAll(t *testing.T) {
	t.Run("should replace plans of the period", func(t *testing.T) {
		service, ctx := setupService()
		_, err := service.SaveAll(ctx, category.Expense, march, []Item{
			{CategoryId: 10, Amount: decimal.RequireFromString("500")},
			{CategoryId: 11, Amount: decimal.RequireFromString("1200")},
		})
		require.NoError(t, err)

		// when
		saved, err := service.SaveAll(ctx, category.Expense, march.AddDate(0, 0, 14), []Item{
			{CategoryId: 10, Amount: decimal.RequireFromString("450.50")},
		})

		// then
		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, 10, saved[0].CategoryId)
		assert.True(t, decimal.RequireFromString("450.50").Equal(saved[0].Amount))
		assert.Equal(t, march, saved[0].Period)
	})

	t.Run("should clear the period with empty items", func(t *testing.T) {
		service, ctx := setupService()
		_, err := service.SaveAll(ctx, category.Expense, march, []Item{
			{CategoryId: 10, Amount: decimal.RequireFromString("500")},
		})
		require.NoError(t, err)
		_, err = service.SaveAll(ctx, category.Income, march, []Item{
			{CategoryId: 20, Amount: decimal.RequireFromString("3000")},
		})
		require.NoError(t, err)

		// when
		saved, err := service.SaveAll(ctx, category.Expense, march, nil)

		// then
		require.NoError(t, err)
		assert.Empty(t, saved)
		expenses, err := service.GetForPeriod(ctx, category.Expense, march)
		require.NoError(t, err)
		assert.Empty(t, expenses)
		incomes, err := service.GetForPeriod(ctx, category.Income, march)
		require.NoError(t, err)
		assert.Len(t, incomes, 1)
	})

	t.Run("should reject categories of another kind or owner", func(t *testing.T) {
		service, ctx := setupService()

		for name, categoryId := range map[string]int{"kind": 20, "owner": 30, "missing": 99} {
			t.Run(name, func(t *testing.T) {
				// when
				_, err := service.SaveAll(ctx, category.Expense, march, []Item{
					{CategoryId: categoryId, Amount: decimal.RequireFromString("10")},
				})

				// then
				assert.ErrorIs(t, err, ErrInvalidPlanItem)
			})
		}
	})

	t.Run("should validate amounts and duplicates", func(t *testing.T) {
		service, ctx := setupService()

		for name, items := range map[string][]Item{
			"negative":  {{CategoryId: 10, Amount: decimal.RequireFromString("-1")}},
			"precision": {{CategoryId: 10, Amount: decimal.RequireFromString("1.005")}},
			"too large": {{CategoryId: 10, Amount: decimal.RequireFromString("1e12")}},
			"exponent":  {{CategoryId: 10, Amount: decimal.RequireFromString("1e50000000")}},
			"id range":  {{CategoryId: math.MaxInt32 + 10, Amount: decimal.RequireFromString("1")}},
			"no id":     {{CategoryId: 0, Amount: decimal.RequireFromString("1")}},
			"duplicate": {
				{CategoryId: 10, Amount: decimal.RequireFromString("1")},
				{CategoryId: 10, Amount: decimal.RequireFromString("2")},
			},
		} {
			t.Run(name, func(t *testing.T) {
				// when
				_, err := service.SaveAll(ctx, category.Expense, march, items)

				// then
				_, ok := validation.As(err)
				assert.True(t, ok, "expected validation error, got %v", err)
			})
		}
	})
}

func TestServiceImpl_GetAnnualSummary(t *testing.T) {
	// given
	service, ctx := setupService()
	for month := 0; month < 3; month++ {
		_, err := service.SaveAll(ctx, category.Expense, march.AddDate(0, month, 0), []Item{
			{CategoryId: 10, Amount: decimal.RequireFromString("100.25")},
		})
		require.NoError(t, err)
	}
	_, err := service.SaveAll(ctx, category.Expense, march.AddDate(1, 0, 0), []Item{
		{CategoryId: 10, Amount: decimal.RequireFromString("999")},
	})
	require.NoError(t, err)

	// when
	totals, err := service.GetAnnualSummary(ctx, category.Expense, 2025)

	// then
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "Food", totals[0].CategoryName)
	assert.True(t, decimal.RequireFromString("300.75").Equal(totals[0].Amount))
}

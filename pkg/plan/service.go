package plan

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/user"
)

type Service interface {
	SaveAll(ctx context.Context, kind category.Kind, period time.Time, items []Item) ([]Plan, error)
	GetForPeriod(ctx context.Context, kind category.Kind, period time.Time) ([]Plan, error)
	GetAnnualSummary(ctx context.Context, kind category.Kind, year int) ([]CategoryTotal, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) SaveAll(ctx context.Context, kind category.Kind, period time.Time, items []Item) ([]Plan, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !kind.Valid() {
		return nil, validation.New("kind", "must be income or expense")
	}
	seen := make(map[int]bool, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.CategoryId <= 0 || item.CategoryId > math.MaxInt32 {
			return nil, validation.New(field+".categoryId", "is not a valid category id")
		}
		if seen[item.CategoryId] {
			return nil, validation.New(field+".categoryId", "category is planned twice")
		}
		seen[item.CategoryId] = true
		if item.Amount.IsNegative() {
			return nil, validation.New(field+".amount", "must not be negative")
		}
		if err := validation.Amount(field+".amount", item.Amount); err != nil {
			return nil, err
		}
	}
	return s.repo.SaveAll(ctx, userId, kind, PeriodOf(period), items)
}

func (s *ServiceImpl) GetForPeriod(ctx context.Context, kind category.Kind, period time.Time) ([]Plan, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !kind.Valid() {
		return nil, validation.New("kind", "must be income or expense")
	}
	return s.repo.GetForPeriod(ctx, userId, kind, PeriodOf(period))
}

func (s *ServiceImpl) GetAnnualSummary(ctx context.Context, kind category.Kind, year int) ([]CategoryTotal, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !kind.Valid() {
		return nil, validation.New("kind", "must be income or expense")
	}
	return s.repo.GetAnnualSummary(ctx, userId, kind, year)
}

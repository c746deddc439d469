package plan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	mu         sync.Mutex
	nextId     int
	categories map[int]stubCategory
	plans      map[int]stubPlan
}

type stubCategory struct {
	userId   int
	category category.Category
}

type stubPlan struct {
	userId int
	plan   Plan
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		categories: map[int]stubCategory{},
		plans:      map[int]stubPlan{},
	}
}

// AddCategory makes a category known to the stub so plans can reference it.
func (s *RepositoryStub) AddCategory(userId int, c category.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.Id] = stubCategory{userId: userId, category: c}
}

func (s *RepositoryStub) SaveAll(_ context.Context, userId int, kind category.Kind, period time.Time, items []Item) ([]Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		c, ok := s.categories[item.CategoryId]
		if !ok || c.userId != userId || c.category.Kind != kind {
			return nil, ErrInvalidPlanItem
		}
	}
	for id, stored := range s.plans {
		if stored.userId == userId && stored.plan.Kind == kind && stored.plan.Period.Equal(period) {
			delete(s.plans, id)
		}
	}
	for _, item := range items {
		s.nextId++
		s.plans[s.nextId] = stubPlan{userId: userId, plan: Plan{
			Id:           s.nextId,
			CategoryId:   item.CategoryId,
			CategoryName: s.categories[item.CategoryId].category.Name,
			Kind:         kind,
			Amount:       item.Amount,
			Period:       period,
		}}
	}
	return s.forPeriod(userId, kind, period), nil
}

func (s *RepositoryStub) GetForPeriod(_ context.Context, userId int, kind category.Kind, period time.Time) ([]Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forPeriod(userId, kind, period), nil
}

func (s *RepositoryStub) forPeriod(userId int, kind category.Kind, period time.Time) []Plan {
	result := make([]Plan, 0)
	for _, stored := range s.plans {
		if stored.userId == userId && stored.plan.Kind == kind && stored.plan.Period.Equal(period) {
			result = append(result, stored.plan)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CategoryName == result[j].CategoryName {
			return result[i].CategoryId < result[j].CategoryId
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result
}

func (s *RepositoryStub) GetAnnualSummary(_ context.Context, userId int, kind category.Kind, year int) ([]CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[int]CategoryTotal{}
	for _, stored := range s.plans {
		p := stored.plan
		if stored.userId != userId || p.Kind != kind || p.Period.Year() != year {
			continue
		}
		total, ok := sums[p.CategoryId]
		if !ok {
			total = CategoryTotal{CategoryId: p.CategoryId, CategoryName: p.CategoryName, Amount: decimal.Zero}
		}
		total.Amount = total.Amount.Add(p.Amount)
		sums[p.CategoryId] = total
	}
	result := make([]CategoryTotal, 0, len(sums))
	for _, total := range sums {
		result = append(result, total)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CategoryName == result[j].CategoryName {
			return result[i].CategoryId < result[j].CategoryId
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result, nil
}

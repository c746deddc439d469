package transaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
)

type stubKey struct {
	userId     int
	categoryId int
	period     time.Time
}

type RepositoryStub struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	nextId       int
	transactions map[int]Transaction
	owners       map[int]int
	categories   map[int]stubCategory
	plans        map[stubKey]decimal.Decimal
}

type stubCategory struct {
	userId int
	kind   category.Kind
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		transactions: map[int]Transaction{},
		owners:       map[int]int{},
		categories:   map[int]stubCategory{},
		plans:        map[stubKey]decimal.Decimal{},
	}
}

func (s *RepositoryStub) AddCategory(userId int, categoryId int, kind category.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[categoryId] = stubCategory{userId: userId, kind: kind}
}

func (s *RepositoryStub) SetPlan(userId int, categoryId int, period time.Time, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[stubKey{userId: userId, categoryId: categoryId, period: period}] = amount
}

// WithTransaction runs fn exclusively and restores the previous transactions when fn fails.
func (s *RepositoryStub) WithTransaction(_ context.Context, fn func(repo Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[int]Transaction, len(s.transactions))
	for k, v := range s.transactions {
		snapshot[k] = v
	}
	owners := make(map[int]int, len(s.owners))
	for k, v := range s.owners {
		owners[k] = v
	}
	nextId := s.nextId
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.transactions, s.owners, s.nextId = snapshot, owners, nextId
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *RepositoryStub) Create(_ context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	t.Id = s.nextId
	s.transactions[t.Id] = t
	s.owners[t.Id] = userId
	return t, nil
}

func (s *RepositoryStub) Update(_ context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[t.Id]; !ok || owner != userId {
		return Transaction{}, ErrTransactionNotFound
	}
	s.transactions[t.Id] = t
	return t, nil
}

func (s *RepositoryStub) Get(_ context.Context, userId int, id int) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[id]; !ok || owner != userId {
		return Transaction{}, ErrTransactionNotFound
	}
	return s.transactions[id], nil
}

func (s *RepositoryStub) Delete(_ context.Context, userId int, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[id]; !ok || owner != userId {
		return ErrTransactionNotFound
	}
	delete(s.transactions, id)
	delete(s.owners, id)
	return nil
}

func (s *RepositoryStub) List(_ context.Context, userId int, filter Filter) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Transaction, 0)
	for id, t := range s.transactions {
		if s.owners[id] != userId {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.CategoryId != 0 && t.CategoryId != filter.CategoryId {
			continue
		}
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !t.Date.Before(filter.To) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].Id > result[j].Id
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *RepositoryStub) CategoryKind(_ context.Context, userId int, categoryId int) (category.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryId]
	if !ok || c.userId != userId {
		return "", category.ErrCategoryNotFound
	}
	return c.kind, nil
}

func (s *RepositoryStub) SumForCategory(_ context.Context, userId int, categoryId int, period time.Time, excludeId int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := period.AddDate(0, 1, 0)
	sum := decimal.Zero
	for id, t := range s.transactions {
		if id == excludeId || s.owners[id] != userId || t.CategoryId != categoryId {
			continue
		}
		if t.Date.Before(period) || !t.Date.Before(end) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (s *RepositoryStub) PlanAmount(_ context.Context, userId int, categoryId int, period time.Time) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.plans[stubKey{userId: userId, categoryId: categoryId, period: period}]
	return amount, ok, nil
}

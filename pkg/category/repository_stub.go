package category

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu         sync.Mutex
	nextId     int
	categories map[int]ownedCategory
	// OnRemove lets tests observe cascades they cannot see in memory.
	OnRemove func(userId, id int) Removal
}

type ownedCategory struct {
	userId   int
	category Category
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{categories: map[int]ownedCategory{}}
}

func (s *RepositoryStub) Create(_ context.Context, userId int, category Category) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	category.Id = s.nextId
	s.categories[category.Id] = ownedCategory{userId: userId, category: category}
	return category, nil
}

func (s *RepositoryStub) Get(_ context.Context, userId int, id int) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.categories[id]
	if !ok || stored.userId != userId {
		return Category{}, ErrCategoryNotFound
	}
	return stored.category, nil
}

func (s *RepositoryStub) Update(_ context.Context, userId int, category Category) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.categories[category.Id]
	if !ok || stored.userId != userId {
		return Category{}, ErrCategoryNotFound
	}
	category.Kind = stored.category.Kind
	s.categories[category.Id] = ownedCategory{userId: userId, category: category}
	return category, nil
}

func (s *RepositoryStub) Remove(_ context.Context, userId int, id int) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.categories[id]
	if !ok || stored.userId != userId {
		return Removal{}, ErrCategoryNotFound
	}
	delete(s.categories, id)
	if s.OnRemove != nil {
		return s.OnRemove(userId, id), nil
	}
	return Removal{}, nil
}

func (s *RepositoryStub) ListAll(_ context.Context, userId int, kind Kind) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Category, 0)
	for _, stored := range s.categories {
		if stored.userId != userId {
			continue
		}
		if kind != "" && stored.category.Kind != kind {
			continue
		}
		result = append(result, stored.category)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].Id < result[j].Id
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

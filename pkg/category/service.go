package category

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Create(ctx context.Context, category Category) (Category, error)
	Get(ctx context.Context, id int) (Category, error)
	Update(ctx context.Context, category Category) (Category, error)
	Remove(ctx context.Context, id int) (Removal, error)
	ListAll(ctx context.Context, kind Kind) ([]Category, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) Create(ctx context.Context, category Category) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !category.Kind.Valid() {
		return Category{}, validation.New("kind", "must be income or expense")
	}
	category, err = normalize(category)
	if err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, userId, category)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

// Update changes name, color and icon. The kind of a category is fixed at creation.
func (s *ServiceImpl) Update(ctx context.Context, category Category) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}
	category, err = normalize(category)
	if err != nil {
		return Category{}, err
	}
	return s.repo.Update(ctx, userId, category)
}

func (s *ServiceImpl) Remove(ctx context.Context, id int) (Removal, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Removal{}, fmt.Errorf("failed to get current user: %w", err)
	}
	removal, err := s.repo.Remove(ctx, userId, id)
	if err != nil {
		return Removal{}, err
	}
	log.Debugf("category %d removed with %d plans and %d transactions", id, removal.PlansDeleted, removal.TransactionsDeleted)

	// the removal is committed already, a failing subscriber only gets logged
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.CategoryDeletedType, event_bus.CategoryDeleted{
		Id:                  id,
		UserId:              userId,
		PlansDeleted:        removal.PlansDeleted,
		TransactionsDeleted: removal.TransactionsDeleted,
	}))
	if err != nil {
		log.Errorf("failed to publish category deleted event: %v", err)
	}
	return removal, nil
}

func (s *ServiceImpl) ListAll(ctx context.Context, kind Kind) ([]Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if kind != "" && !kind.Valid() {
		return nil, validation.New("kind", "must be income or expense")
	}
	return s.repo.ListAll(ctx, userId, kind)
}

func normalize(category Category) (Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return Category{}, validation.New("name", "is required")
	}
	if utf8.RuneCountInString(category.Name) > maxNameLen {
		return Category{}, validation.New("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	category.Color = strings.TrimSpace(category.Color)
	if category.Color == "" {
		category.Color = DefaultColor
	}
	category.Icon = strings.TrimSpace(category.Icon)
	if category.Icon == "" {
		category.Icon = DefaultIcon
	}
	return category, nil
}

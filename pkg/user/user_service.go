package user

import (
	"context"
	"fmt"
	"strings"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	UpdateDisplayName(ctx context.Context, displayName string) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.GetUser(ctx, userId)
}

func (u *UserServiceImpl) UpdateDisplayName(ctx context.Context, displayName string) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return User{}, ErrDisplayNameRequired
	}
	return u.repo.UpdateDisplayName(ctx, userId, displayName)
}

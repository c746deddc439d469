package user

import (
	"context"
	"strings"
	"sync"
	"time"
)

type StubUserRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range s.data {
		if existing.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	s.nextId++
	user.Id = s.nextId
	user.Created = time.Now()
	s.data[user.Id] = user
	return user, nil
}

func (s *StubUserRepository) GetUser(_ context.Context, id int) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *StubUserRepository) GetUserByUid(_ context.Context, uid string) (User, error) {
	return s.find(func(u User) bool { return u.Uid == uid })
}

func (s *StubUserRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	email = strings.ToLower(email)
	return s.find(func(u User) bool { return u.Email == email })
}

func (s *StubUserRepository) find(match func(User) bool) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateDisplayName(_ context.Context, userId int, displayName string) (User, error) {
	return s.update(userId, func(u *User) { u.DisplayName = displayName })
}

func (s *StubUserRepository) MarkVerified(_ context.Context, userId int) error {
	_, err := s.update(userId, func(u *User) { u.Verified = true })
	return err
}

func (s *StubUserRepository) UpdatePasswordHash(_ context.Context, userId int, passwordHash string) error {
	_, err := s.update(userId, func(u *User) { u.PasswordHash = passwordHash })
	return err
}

func (s *StubUserRepository) update(userId int, fn func(u *User)) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	fn(&u)
	s.data[userId] = u
	return u, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already registered")
var ErrDisplayNameRequired = errors.New("display name is required")

type Repo interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateDisplayName(ctx context.Context, userId int, displayName string) (User, error)
	MarkVerified(ctx context.Context, userId int) error
	UpdatePasswordHash(ctx context.Context, userId int, passwordHash string) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, email, display_name, password_hash, verified, created`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.Id, &u.Uid, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Verified, &u.Created)
	return u, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (User, error) {
	query := `INSERT INTO users (uid, email, display_name, password_hash, verified)
				VALUES ($1, $2, $3, $4, $5) RETURNING ` + userColumns
	created, err := scanUser(u.db.QueryRow(ctx, query,
		user.Uid,
		strings.ToLower(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Verified,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		log.Errorf("failed to create user: %v", err)
		return User{}, fmt.Errorf("could not create user: %w", err)
	}
	return created, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return u.getOne(ctx, query, id)
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	return u.getOne(ctx, query, uid)
}

func (u *UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return u.getOne(ctx, query, strings.ToLower(email))
}

func (u *UserRepoImpl) getOne(ctx context.Context, query string, arg any) (User, error) {
	found, err := scanUser(u.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user %v not found", arg)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return found, nil
}

func (u *UserRepoImpl) UpdateDisplayName(ctx context.Context, userId int, displayName string) (User, error) {
	query := `UPDATE users SET display_name = $1 WHERE id = $2 RETURNING ` + userColumns
	updated, err := scanUser(u.db.QueryRow(ctx, query, displayName, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to update user: %v", err)
		return User{}, err
	}
	return updated, nil
}

func (u *UserRepoImpl) MarkVerified(ctx context.Context, userId int) error {
	result, err := u.db.Exec(ctx, `UPDATE users SET verified = TRUE WHERE id = $1`, userId)
	if err != nil {
		log.Errorf("failed to verify user: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) UpdatePasswordHash(ctx context.Context, userId int, passwordHash string) error {
	result, err := u.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userId)
	if err != nil {
		log.Errorf("failed to update password: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

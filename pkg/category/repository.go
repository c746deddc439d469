package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrCategoryNotFound = errors.New("category not found")

// Removal reports what was deleted together with a category.
type Removal struct {
	PlansDeleted        int
	TransactionsDeleted int
}

type Repository interface {
	Create(ctx context.Context, userId int, category Category) (Category, error)
	Get(ctx context.Context, userId int, id int) (Category, error)
	Update(ctx context.Context, userId int, category Category) (Category, error)
	// Remove deletes the category's plans, then its transactions, then the category, atomically.
	Remove(ctx context.Context, userId int, id int) (Removal, error)
	ListAll(ctx context.Context, userId int, kind Kind) ([]Category, error)
}

type queryer interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, category Category) (Category, error) {
	query := `INSERT INTO categories (user_id, name, color, icon, kind)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		userId,
		category.Name,
		category.Color,
		category.Icon,
		string(category.Kind),
	).Scan(&category.Id)
	if err != nil {
		err := fmt.Errorf("could not create category: %w", err)
		log.Error(err)
		return Category{}, err
	}
	return category, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id int) (Category, error) {
	return get(ctx, r.db, userId, id)
}

func get(ctx context.Context, q queryer, userId int, id int) (Category, error) {
	query := `SELECT id, name, color, icon, kind FROM categories WHERE id = $1 AND user_id = $2`
	var c Category
	var kind string
	err := q.QueryRow(ctx, query, id, userId).Scan(&c.Id, &c.Name, &c.Color, &c.Icon, &kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		err := fmt.Errorf("could not get category: %w", err)
		log.Error(err)
		return Category{}, err
	}
	c.Kind = Kind(kind)
	return c, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, category Category) (Category, error) {
	query := `UPDATE categories SET name = $1, color = $2, icon = $3
				WHERE id = $4 AND user_id = $5
				RETURNING kind`
	var kind string
	err := r.db.QueryRow(ctx, query,
		category.Name,
		category.Color,
		category.Icon,
		category.Id,
		userId,
	).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		err := fmt.Errorf("could not update category: %w", err)
		log.Error(err)
		return Category{}, err
	}
	category.Kind = Kind(kind)
	return category, nil
}

func (r *RepositoryImpl) Remove(ctx context.Context, userId int, id int) (Removal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Removal{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	// lock the category row first so the ownership check holds until commit
	var lockedId int
	err = tx.QueryRow(ctx, `SELECT id FROM categories WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userId).
		Scan(&lockedId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Removal{}, ErrCategoryNotFound
		}
		return Removal{}, fmt.Errorf("could not lock category: %w", err)
	}

	var removal Removal
	plans, err := tx.Exec(ctx, `DELETE FROM plans WHERE category_id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not delete plans of category %d: %w", id, err)
		log.Error(err)
		return Removal{}, err
	}
	removal.PlansDeleted = int(plans.RowsAffected())

	transactions, err := tx.Exec(ctx, `DELETE FROM transactions WHERE category_id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not delete transactions of category %d: %w", id, err)
		log.Error(err)
		return Removal{}, err
	}
	removal.TransactionsDeleted = int(transactions.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userId); err != nil {
		err := fmt.Errorf("could not delete category %d: %w", id, err)
		log.Error(err)
		return Removal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Removal{}, fmt.Errorf("commit transaction: %w", err)
	}
	return removal, nil
}

func (r *RepositoryImpl) ListAll(ctx context.Context, userId int, kind Kind) ([]Category, error) {
	query := `SELECT id, name, color, icon, kind FROM categories
				WHERE user_id = $1 AND ($2 = '' OR kind = $2)
				ORDER BY name, id`
	rows, err := r.db.Query(ctx, query, userId, string(kind))
	if err != nil {
		err := fmt.Errorf("could not query categories: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		var k string
		if err := rows.Scan(&c.Id, &c.Name, &c.Color, &c.Icon, &k); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		c.Kind = Kind(k)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return categories, nil
}

package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	Create(ctx context.Context, userId int, t Transaction) (Transaction, error)
	Update(ctx context.Context, userId int, t Transaction) (Transaction, error)
	Get(ctx context.Context, userId int, id int) (Transaction, error)
	Delete(ctx context.Context, userId int, id int) error
	List(ctx context.Context, userId int, filter Filter) ([]Transaction, error)
	// CategoryKind returns the kind of an owned category or category.ErrCategoryNotFound.
	CategoryKind(ctx context.Context, userId int, categoryId int) (category.Kind, error)
	// SumForCategory sums the category's transactions in the month starting at period, leaving out excludeId.
	SumForCategory(ctx context.Context, userId int, categoryId int, period time.Time, excludeId int) (decimal.Decimal, error)
	// PlanAmount returns the planned amount of the category for the month starting at period.
	// Inside WithTransaction the plan row stays locked until the transaction ends.
	PlanAmount(ctx context.Context, userId int, categoryId int, period time.Time) (decimal.Decimal, bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `INSERT INTO transactions (user_id, category_id, amount, date, description, kind)
				VALUES ($1, $2, $3::numeric, $4, $5, $6) RETURNING id`
	err := r.getQueryer().QueryRow(ctx, query,
		userId,
		t.CategoryId,
		t.Amount.StringFixed(2),
		t.Date,
		t.Description,
		string(t.Kind),
	).Scan(&t.Id)
	if err != nil {
		err := fmt.Errorf("could not create transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `UPDATE transactions SET category_id = $1, amount = $2::numeric, date = $3, description = $4, kind = $5
				WHERE id = $6 AND user_id = $7`
	result, err := r.getQueryer().Exec(ctx, query,
		t.CategoryId,
		t.Amount.StringFixed(2),
		t.Date,
		t.Description,
		string(t.Kind),
		t.Id,
		userId,
	)
	if err != nil {
		err := fmt.Errorf("could not update transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	if result.RowsAffected() == 0 {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

const transactionColumns = `id, category_id, kind, amount::text, date, description`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var kind, amount string
	if err := row.Scan(&t.Id, &t.CategoryId, &kind, &amount, &t.Date, &t.Description); err != nil {
		return Transaction{}, err
	}
	t.Kind = category.Kind(kind)
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid transaction amount %q: %w", amount, err)
	}
	t.Amount = parsed
	return t, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id int) (Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	t, err := scanTransaction(r.getQueryer().QueryRow(ctx, query, id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		err := fmt.Errorf("could not get transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) error {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not delete transaction: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
				WHERE user_id = $1
				  AND ($2 = '' OR kind = $2)
				  AND ($3 = 0 OR category_id = $3)
				  AND ($4::date IS NULL OR date >= $4)
				  AND ($5::date IS NULL OR date < $5)
				ORDER BY date DESC, id DESC`
	rows, err := r.getQueryer().Query(ctx, query,
		userId,
		string(filter.Kind),
		filter.CategoryId,
		optionalDate(filter.From),
		optionalDate(filter.To),
	)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return transactions, nil
}

func optionalDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *RepositoryImpl) CategoryKind(ctx context.Context, userId int, categoryId int) (category.Kind, error) {
	var kind string
	err := r.getQueryer().QueryRow(ctx,
		`SELECT kind FROM categories WHERE id = $1 AND user_id = $2`, categoryId, userId,
	).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", category.ErrCategoryNotFound
		}
		err := fmt.Errorf("could not get category kind: %w", err)
		log.Error(err)
		return "", err
	}
	return category.Kind(kind), nil
}

func (r *RepositoryImpl) SumForCategory(ctx context.Context, userId int, categoryId int, period time.Time, excludeId int) (decimal.Decimal, error) {
	query := `SELECT COALESCE(sum(amount), 0)::text FROM transactions
				WHERE user_id = $1 AND category_id = $2
				  AND date >= $3 AND date < $4
				  AND id <> $5`
	var sum string
	err := r.getQueryer().QueryRow(ctx, query, userId, categoryId, period, period.AddDate(0, 1, 0), excludeId).Scan(&sum)
	if err != nil {
		err := fmt.Errorf("could not sum transactions: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}

func (r *RepositoryImpl) PlanAmount(ctx context.Context, userId int, categoryId int, period time.Time) (decimal.Decimal, bool, error) {
	query := `SELECT amount::text FROM plans WHERE user_id = $1 AND category_id = $2 AND period = $3`
	if r.tx != nil {
		query += ` FOR UPDATE`
	}
	var amount string
	err := r.getQueryer().QueryRow(ctx, query, userId, categoryId, period).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		err := fmt.Errorf("could not get plan amount: %w", err)
		log.Error(err)
		return decimal.Zero, false, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid plan amount %q: %w", amount, err)
	}
	return parsed, true, nil
}

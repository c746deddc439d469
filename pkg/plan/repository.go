package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidPlanItem = errors.New("plan item references an unknown category or one of another kind")

type Repository interface {
	// SaveAll replaces every plan of the given kind and period with items.
	SaveAll(ctx context.Context, userId int, kind category.Kind, period time.Time, items []Item) ([]Plan, error)
	GetForPeriod(ctx context.Context, userId int, kind category.Kind, period time.Time) ([]Plan, error)
	GetAnnualSummary(ctx context.Context, userId int, kind category.Kind, year int) ([]CategoryTotal, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) SaveAll(ctx context.Context, userId int, kind category.Kind, period time.Time, items []Item) ([]Plan, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if len(items) > 0 {
		categoryIds := make([]int, 0, len(items))
		for _, item := range items {
			categoryIds = append(categoryIds, item.CategoryId)
		}
		var matching int
		err = tx.QueryRow(ctx,
			`SELECT count(*) FROM categories WHERE user_id = $1 AND kind = $2 AND id = ANY($3)`,
			userId, string(kind), categoryIds,
		).Scan(&matching)
		if err != nil {
			err := fmt.Errorf("could not check plan categories: %w", err)
			log.Error(err)
			return nil, err
		}
		if matching != len(items) {
			return nil, ErrInvalidPlanItem
		}
	}

	deleted, err := tx.Exec(ctx, `DELETE FROM plans p USING categories c
				WHERE p.category_id = c.id AND p.user_id = $1 AND p.period = $2 AND c.kind = $3`,
		userId, period, string(kind))
	if err != nil {
		err := fmt.Errorf("could not delete plans: %w", err)
		log.Error(err)
		return nil, err
	}
	log.Debugf("replacing %d %s plans of %s for user %d", deleted.RowsAffected(), kind, FormatPeriod(period), userId)

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO plans (user_id, category_id, amount, period) VALUES ($1, $2, $3::numeric, $4)`,
			userId, item.CategoryId, item.Amount.StringFixed(2), period)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			err := fmt.Errorf("could not insert plans: %w", err)
			log.Error(err)
			return nil, err
		}
	}

	plans, err := getForPeriod(ctx, tx, userId, kind, period)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return plans, nil
}

func (r *RepositoryImpl) GetForPeriod(ctx context.Context, userId int, kind category.Kind, period time.Time) ([]Plan, error) {
	return getForPeriod(ctx, r.db, userId, kind, period)
}

type querier interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

func getForPeriod(ctx context.Context, q querier, userId int, kind category.Kind, period time.Time) ([]Plan, error) {
	query := `SELECT p.id, p.category_id, c.name, c.kind, p.amount::text, p.period
				FROM plans p JOIN categories c ON c.id = p.category_id
				WHERE p.user_id = $1 AND p.period = $2 AND c.kind = $3
				ORDER BY c.name, p.category_id`
	rows, err := q.Query(ctx, query, userId, period, string(kind))
	if err != nil {
		err := fmt.Errorf("could not query plans: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	plans := make([]Plan, 0)
	for rows.Next() {
		var p Plan
		var kind, amount string
		if err := rows.Scan(&p.Id, &p.CategoryId, &p.CategoryName, &kind, &amount, &p.Period); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		p.Kind = category.Kind(kind)
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid plan amount %q: %w", amount, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return plans, nil
}

func (r *RepositoryImpl) GetAnnualSummary(ctx context.Context, userId int, kind category.Kind, year int) ([]CategoryTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	query := `SELECT p.category_id, c.name, sum(p.amount)::text
				FROM plans p JOIN categories c ON c.id = p.category_id
				WHERE p.user_id = $1 AND c.kind = $2 AND p.period >= $3 AND p.period < $4
				GROUP BY p.category_id, c.name
				ORDER BY c.name, p.category_id`
	rows, err := r.db.Query(ctx, query, userId, string(kind), from, to)
	if err != nil {
		err := fmt.Errorf("could not query annual plan summary: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	totals := make([]CategoryTotal, 0)
	for rows.Next() {
		var total CategoryTotal
		var amount string
		if err := rows.Scan(&total.CategoryId, &total.CategoryName, &amount); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		total.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid plan sum %q: %w", amount, err)
		}
		totals = append(totals, total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return totals, nil
}

package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrKindMismatch = errors.New("category kind does not match transaction kind")

type Service interface {
	// Propose commits the submission when its category has a plan for the month and, for
	// expenses, the plan still covers the amount. Otherwise nothing is written and the outcome
	// asks for confirmation.
	Propose(ctx context.Context, submission Submission) (Outcome, error)
	// Confirm commits the submission without looking at plans.
	Confirm(ctx context.Context, submission Submission) (Outcome, error)
	Get(ctx context.Context, id int) (Transaction, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter Filter) ([]Transaction, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) Propose(ctx context.Context, submission Submission) (Outcome, error) {
	return s.submit(ctx, submission, true)
}

func (s *ServiceImpl) Confirm(ctx context.Context, submission Submission) (Outcome, error) {
	return s.submit(ctx, submission, false)
}

func (s *ServiceImpl) submit(ctx context.Context, submission Submission, checkPlan bool) (Outcome, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get current user: %w", err)
	}
	submission, err = validate(submission)
	if err != nil {
		return Outcome{}, err
	}

	var outcome Outcome
	var stored Transaction
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		kind, err := repo.CategoryKind(ctx, userId, submission.CategoryId)
		if err != nil {
			return err
		}
		if kind != submission.Kind {
			return ErrKindMismatch
		}
		if submission.IsEdit() {
			if _, err := repo.Get(ctx, userId, submission.Id); err != nil {
				return err
			}
		}

		if checkPlan {
			reason, err := overPlan(ctx, repo, userId, submission)
			if err != nil {
				return err
			}
			if reason != "" {
				outcome = needsConfirmation(reason)
				return nil
			}
		}

		t := Transaction{
			Id:          submission.Id,
			CategoryId:  submission.CategoryId,
			Kind:        submission.Kind,
			Amount:      submission.Amount,
			Date:        submission.Date,
			Description: submission.Description,
		}
		if submission.IsEdit() {
			stored, err = repo.Update(ctx, userId, t)
		} else {
			stored, err = repo.Create(ctx, userId, t)
		}
		if err != nil {
			return err
		}
		outcome = committed(stored.Id)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	if outcome.Status == StatusCommitted {
		s.publishCommitted(ctx, userId, stored, !checkPlan, submission.IsEdit())
	} else {
		log.Debugf("transaction for category %d needs confirmation: %s", submission.CategoryId, outcome.Reason)
	}
	return outcome, nil
}

// overPlan returns the reason the submission cannot be committed without confirmation, or an
// empty string. Income only needs a plan to exist; expenses must also fit into it.
func overPlan(ctx context.Context, repo Repository, userId int, submission Submission) (string, error) {
	period := plan.PeriodOf(submission.Date)
	limit, found, err := repo.PlanAmount(ctx, userId, submission.CategoryId, period)
	if err != nil {
		return "", err
	}
	if !found || limit.IsZero() {
		return ReasonNoPlan, nil
	}
	if submission.Kind != category.Expense {
		return "", nil
	}
	spent, err := repo.SumForCategory(ctx, userId, submission.CategoryId, period, submission.Id)
	if err != nil {
		return "", err
	}
	if spent.Add(submission.Amount).GreaterThan(limit) {
		return ReasonOverLimit, nil
	}
	return "", nil
}

func (s *ServiceImpl) publishCommitted(ctx context.Context, userId int, t Transaction, confirmed bool, edit bool) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionCommittedType, event_bus.TransactionCommitted{
		Id:          t.Id,
		UserId:      userId,
		CategoryId:  t.CategoryId,
		Kind:        string(t.Kind),
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		Confirmed:   confirmed,
		Edit:        edit,
	}))
	if err != nil {
		log.Errorf("failed to publish transaction committed event: %v", err)
	}
}

func validate(submission Submission) (Submission, error) {
	if submission.Id < 0 || submission.Id > math.MaxInt32 {
		return Submission{}, validation.New("id", "is not a valid transaction id")
	}
	if submission.CategoryId <= 0 {
		return Submission{}, validation.New("category", "is required")
	}
	if submission.CategoryId > math.MaxInt32 {
		return Submission{}, validation.New("category", "is not a valid category id")
	}
	if !submission.Kind.Valid() {
		return Submission{}, validation.New("kind", "must be income or expense")
	}
	if !submission.Amount.IsPositive() {
		return Submission{}, validation.New("amount", "must be greater than zero")
	}
	if err := validation.Amount("amount", submission.Amount); err != nil {
		return Submission{}, err
	}
	if submission.Date.IsZero() {
		return Submission{}, validation.New("date", "is required")
	}
	if utf8.RuneCountInString(submission.Description) > maxDescriptionLen {
		return Submission{}, validation.New("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	d := submission.Date
	submission.Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return submission, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, validation.New("kind", "must be income or expense")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, validation.New("to", "must be after from")
	}
	return s.repo.List(ctx, userId, filter)
}

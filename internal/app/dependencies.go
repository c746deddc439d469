package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/internal/amqp"
	"github.com/pocketplan/pocketplan/internal/config"
	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/pocketplan/pocketplan/internal/mail"
	"github.com/pocketplan/pocketplan/internal/utils"
	"github.com/pocketplan/pocketplan/pkg/auth"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/report"
	"github.com/pocketplan/pocketplan/pkg/transaction"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Mailer   mail.Sender
	// Amqp is nil when no broker URL is configured.
	Amqp *amqp.Client

	UserRepo    user.Repo
	UserService user.Service
	UserHandler *user.Handler

	AuthService *auth.ServiceImpl
	AuthHandler *auth.Handler

	CategoryService *category.ServiceImpl
	CategoryHandler *category.Handler

	PlanService *plan.ServiceImpl
	PlanHandler *plan.Handler

	TransactionService *transaction.ServiceImpl
	TransactionHandler *transaction.Handler

	ReportService *report.ServiceImpl
	ReportHandler *report.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{
		Clock:    utils.SystemClock{},
		EventBus: event_bus.NewEventBus(),
	}

	mailer, err := mail.New(ctx, cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}
	deps.Mailer = mailer

	if cfg.Amqp.Url != "" {
		client, err := amqp.NewClient(cfg.Amqp.Url, cfg.Amqp.Exchange, cfg.Amqp.Queue)
		if err != nil {
			return nil, err
		}
		deps.Amqp = client
		amqp.Forward(deps.EventBus, client)
	} else {
		log.Info("No AMQP url configured, events stay in process")
	}

	deps.UserRepo = user.NewUserRepo(db)
	deps.UserService = user.NewUserService(deps.UserRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.AuthService = auth.NewService(
		deps.UserRepo,
		auth.NewCodeStore(cfg.Auth.CodeTTL, deps.Clock),
		auth.NewTokens(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL, deps.Clock),
		deps.Mailer,
	)
	deps.AuthHandler = auth.NewHandler(deps.AuthService)

	deps.CategoryService = category.NewService(category.NewRepository(db), deps.EventBus)
	deps.CategoryHandler = category.NewHandler(deps.CategoryService)

	deps.PlanService = plan.NewService(plan.NewRepository(db))
	deps.PlanHandler = plan.NewHandler(deps.PlanService)

	deps.TransactionService = transaction.NewService(transaction.NewRepository(db), deps.EventBus)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.ReportService = report.NewService(deps.PlanService, deps.TransactionService, deps.CategoryService)
	deps.ReportHandler = report.NewHandler(deps.ReportService, report.NewCsvRenderer())

	return deps, nil
}

// Close releases connections held by the dependencies.
func (d *Dependencies) Close() {
	if d.Amqp != nil {
		if err := d.Amqp.Close(); err != nil {
			log.Warnf("failed to close AMQP connection: %v", err)
		}
	}
}

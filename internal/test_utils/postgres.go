package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/internal/config"
	"github.com/pocketplan/pocketplan/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "pocketplan"
	dbUser     = "test_pocketplan"
	dbPassword = "test_pocketplan"
)

func preparePostgresContainer() (*postgres.PostgresContainer, error) {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Errorf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB starts a Postgres container, applies all migrations and snapshots the result so
// tests can Restore() a clean schema. The returned func opens a new pool against it.
func TestWithDB() (*postgres.PostgresContainer, func() *pgxpool.Pool) {
	ctx := context.Background()

	container, err := preparePostgresContainer()
	if err != nil {
		log.Errorf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: "pocketplan",
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	err = container.Snapshot(ctx, postgres.WithSnapshotName("postgres-test-snapshot"))
	if err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	return container, func() *pgxpool.Pool {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
		}
		return db
	}
}

// findProjectRoot walks up from the working directory to the directory holding go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

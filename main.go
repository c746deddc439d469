package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pocketplan/pocketplan/internal/app"
	"github.com/pocketplan/pocketplan/internal/config"
	"github.com/pocketplan/pocketplan/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "pocketplan",
		Short: "Personal budget planning API",
		// serving is the default
		RunE: serve,
	}
)

func init() {
	// .env is optional, real environment variables take precedence
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./config/application.yaml", "config file")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP server",
		RunE:  serve,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return database.Migrate(cfg.Database)
		},
	})
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	application, err := app.NewApplication(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

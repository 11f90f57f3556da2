package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"fahrerexpress/config"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/models"
	"fahrerexpress/service"
	"fahrerexpress/storage/postgres"
)

// reset_jobs removes every assignment created by one admin and reopens the
// affected jobs. Used to clean up after test runs on staging.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reset_jobs: %v\n", err)
		os.Exit(1)
	}
}

// parseAdmin reads the admin identity from args, falling back to
// RESET_ADMIN_ID and RESET_ADMIN_EMAIL. A nil identity means help was shown.
func parseAdmin(args []string) (*models.Identity, error) {
	var admin models.Identity

	flagSet := pflag.NewFlagSet("reset_jobs", pflag.ContinueOnError)
	flagSet.StringVar(&admin.UserID, "admin-id", os.Getenv("RESET_ADMIN_ID"), "user id of the admin whose assignments are removed")
	flagSet.StringVar(&admin.Email, "admin-email", os.Getenv("RESET_ADMIN_EMAIL"), "email recorded in the audit log")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	if admin.UserID == "" {
		return nil, errors.New("admin id is required (--admin-id or RESET_ADMIN_ID)")
	}
	return &admin, nil
}

func run() error {
	admin, err := parseAdmin(os.Args[1:])
	if err != nil || admin == nil {
		return err
	}

	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-reset", cfg.LoggerLevel)
	defer log.Sync()

	ctx := context.Background()
	pg, err := postgres.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	services := service.New(pg, mailer.NewLogMailer(log), nil, service.Options{PublicBaseURL: cfg.PublicBaseURL}, log)

	n, err := services.Job().ResetJobsForAdmin(ctx, *admin)
	if err != nil {
		return fmt.Errorf("reset jobs: %w", err)
	}
	log.Info("jobs reset", logger.Int64("jobs", n), logger.String("admin_id", admin.UserID))
	return nil
}

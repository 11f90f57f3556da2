package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fahrerexpress/config"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/service"
	"fahrerexpress/storage/postgres"
)

// expire_invites marks pending invites past their expiry as expired. It is a
// one-shot sweep meant for cron; responses to stale links are already
// rejected without it.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "expire_invites: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-expire-invites", cfg.LoggerLevel)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := postgres.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	services := service.New(pg, mailer.NewLogMailer(log), nil, service.Options{}, log)
	if _, err := services.Invite().ExpireStale(ctx); err != nil {
		return fmt.Errorf("expire invites: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fahrerexpress/api"
	"fahrerexpress/config"
	"fahrerexpress/pkg/auth"
	"fahrerexpress/pkg/bot"
	"fahrerexpress/pkg/events"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/ratelimit"
	"fahrerexpress/service"
	"fahrerexpress/storage"
	"fahrerexpress/storage/memory"
	"fahrerexpress/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	err := run(cfg, log)
	if err != nil {
		log.Error("service stopped with error", logger.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.ILogger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	var store storage.IStorage
	if cfg.Storage == "memory" {
		log.Warning("using in-memory storage, data is lost on restart")
		store = memory.New()
	} else {
		pg, err := postgres.New(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		store = pg
	}
	defer store.Close()

	// 2. Outbound channels
	var mail mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.MailAPIKey != "" {
		mail = mailer.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	}

	var broadcasters service.MultiBroadcaster
	if cfg.DriverBotToken != "" {
		driverBot, err := bot.New(cfg.DriverBotToken, log)
		if err != nil {
			return fmt.Errorf("init driver bot: %w", err)
		}
		broadcasters = append(broadcasters, driverBot)
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaJobTopic)
		defer publisher.Close()
		broadcasters = append(broadcasters, publisher)
	}
	var broadcaster service.Broadcaster
	if len(broadcasters) > 0 {
		broadcaster = broadcasters
	}

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if cfg.RedisHost != "" {
		client := ratelimit.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute)
	}

	// 3. Services and HTTP
	services := service.New(store, mail, broadcaster, service.Options{
		PublicBaseURL:    cfg.PublicBaseURL,
		InviteTTL:        cfg.InviteTTL,
		AdminNotifyEmail: cfg.AdminNotifyEmail,
	}, log)
	guard := auth.NewGuard(auth.NewJWTVerifier(cfg.JWTSecret), store.Role(), log)

	if cfg.LoggerLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(services, guard, limiter, log)
	handler.TrustProxies(cfg.TrustedProxies)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.AppPort),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server is starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 4. Graceful shutdown
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Error(err))
	}
	// broadcasts still read from the store, which closes when run returns
	if err := services.Wait(shutdownCtx); err != nil {
		log.Warning("driver broadcasts still running at shutdown", logger.Error(err))
	}
	return runErr
}

// Command authd runs the credential and session service as a standalone HTTP
// server. Accounts live in memory (seeded from ADMIN_USERNAME/ADMIN_PASSWORD);
// token and lockout state lives in Redis.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authcore "github.com/bookline/authcore"
	"github.com/bookline/authcore/httpapi"
	authpassword "github.com/bookline/authcore/password"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("authd exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := authcore.ConfigFromEnv(true)
	if err != nil {
		return err
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		return err
	}
	cancel()

	repo := newMemoryRepository()
	if err := seedAdmin(repo); err != nil {
		return err
	}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPersonRepository(repo).
		WithEmailSender(&logEmailSender{logger: logger}).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(engine, logger)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// seedAdmin creates the bootstrap account when both env vars are present.
func seedAdmin(repo *memoryRepository) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}
	hash, err := authpassword.New().Hash(password)
	if err != nil {
		return err
	}
	_, err = repo.Create(context.Background(), authcore.CreatePersonInput{
		Username:     username,
		PasswordHash: hash,
		Role:         "admin",
		Name:         "Administrator",
		Email:        os.Getenv("ADMIN_EMAIL"),
	})
	return err
}

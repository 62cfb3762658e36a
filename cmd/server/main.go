package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/api"
	"github.com/Ram4lh0/Sleep-App/internal/auth"
	"github.com/Ram4lh0/Sleep-App/internal/config"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/service"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	os.Exit(finish(logger, run(cfg, logger)))
}

type syncLogger interface {
	Errorf(format string, args ...interface{})
	Sync() error
}

// finish logs the error run stopped with, flushes the logger and returns
// the process exit code.
func finish(logger syncLogger, err error) int {
	code := 0
	if err != nil {
		logger.Errorf("server stopped: %v", err)
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg *config.Config, logger *internal.ZapLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := sleepcalc.SystemClock{Location: loc}

	repos, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Errorf("closing storage: %v", err)
		}
	}()
	logger.Infof("storage backend %s ready", cfg.DBType)

	hub := notify.NewHub()
	defer hub.Close()
	publisher := notify.MultiPublisher{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
		defer kp.Close()
		publisher = append(publisher, kp)
		logger.Infof("publishing change events to kafka topic %s", cfg.EventsTopic)
	}

	app := &api.Services{
		Log:         logger,
		SleepSvc:    service.NewSleepService(repos.Records, publisher, clock, logger.With("component", "sleep")),
		Goals:       repos.Goals,
		Hub:         hub,
		SystemClock: clock,
	}

	var provider auth.Provider
	remote := cfg.AuthMode == "remote"
	if remote {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	} else {
		tokens := auth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.SessionTTL}
		app.AccountSvc = auth.NewAccountService(repos.Accounts, publisher, clock, tokens, logger.With("component", "accounts"))
		provider = auth.NewLocalAuthProvider(app.AccountSvc, logger)
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           api.NewRouter(app, provider, remote),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on %s (auth=%s)", cfg.HTTPAddress, cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	// Open feeds end when the hub closes.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Package server initializes and runs the signup server.
// It wires storage, the mail transport, verification, locking and metrics,
// starts the gRPC and metrics endpoints and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/signupd/internal/cryptox"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/config"
	"github.com/dmitrijs2005/signupd/internal/server/emailcheck"
	"github.com/dmitrijs2005/signupd/internal/server/lock"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
	"github.com/dmitrijs2005/signupd/internal/server/metrics"
	"github.com/dmitrijs2005/signupd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/signupd/internal/server/services"
	"github.com/dmitrijs2005/signupd/internal/server/verification"

	gs "github.com/dmitrijs2005/signupd/internal/server/grpc"
)

// MemoryDSN selects the in-process account store.
const MemoryDSN = "memory"

type App struct {
	config        *config.Config
	logger        logging.Logger
	repomanager   repomanager.RepositoryManager
	redis         redis.UniversalClient
	registry      *prometheus.Registry
	signupService *services.SignupService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	rm, err := newRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	sender, err := newSender(ctx, c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	app := &App{config: c, logger: logger, repomanager: rm, registry: reg}

	var locker lock.Locker
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		locker = lock.NewRedisLocker(app.redis, 0, logger)
	} else {
		locker = lock.NewKeyedMutex()
	}

	issuer := verification.NewIssuer(verification.NewCodeGenerator(), sender, logger, verification.Options{
		TTL:         c.CodeTTL,
		MaxAttempts: c.MaxAttempts,
		AppName:     c.AppName,
	})

	app.signupService = services.NewSignupService(services.Deps{
		Repomanager: rm,
		Validator:   emailcheck.NewValidator(nil, c.CheckMX),
		Issuer:      issuer,
		Hasher:      cryptox.NewHasher(cryptox.DefaultParams),
		Locker:      locker,
		Metrics:     m,
		Logger:      logger,
	}, services.Options{
		ResendRetries: uint64(max(c.ResendRetries, 0)),
		ResendBackoff: c.ResendBackoff,
	})

	return app, nil
}

func newRepositoryManager(dsn string) (repomanager.RepositoryManager, error) {
	if dsn == MemoryDSN {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}
	return repomanager.Open(dsn)
}

func newSender(ctx context.Context, c *config.Config, l logging.Logger) (mail.Sender, error) {
	switch c.MailTransport {
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.MailFrom,
		}, l), nil
	case "ses":
		s, err := mail.NewSESSender(ctx, mail.SESConfig{
			Region:          c.SESRegion,
			AccessKeyID:     c.SESAccessKeyID,
			SecretAccessKey: c.SESSecretAccessKey,
			BaseEndpoint:    c.SESBaseEndpoint,
			From:            c.MailFrom,
		}, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "log":
		return mail.NewLogSender(l), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", c.MailTransport)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.signupService, app.config.SecretKey, app.config.AdminToken)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	if app.config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.registry))
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "metrics listening", "addr", app.config.MetricsAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "err", err)
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.signupService.Registry().Run(ctx, app.config.SweepInterval)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "Shutting down")
	return app.close()
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	errs = append(errs, app.repomanager.Close())
	return errors.Join(errs...)
}

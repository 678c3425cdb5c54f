// Command fo-server starts the family office HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/family-office/internal/config"
	"github.com/and161185/family-office/internal/limiter"
	"github.com/and161185/family-office/internal/migrate"
	"github.com/and161185/family-office/internal/repository/postgres"
	httpserver "github.com/and161185/family-office/internal/server/http"
	"github.com/and161185/family-office/internal/service"
	"github.com/and161185/family-office/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// main loads configuration, runs migrations and serves HTTP until a signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet; the config decides its shape
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return err
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	lim := limiter.NewPG(db.Pool, limiter.Policy{
		Window:   cfg.SignInWindow,
		MaxFails: cfg.SignInMaxFails,
		BlockFor: cfg.SignInBlockFor,
	})

	authSvc := service.NewAuthService(service.AuthDeps{
		Users:         postgres.NewUserRepo(db),
		Teams:         postgres.NewTeamRepo(db),
		Verifications: postgres.NewVerificationRepo(db),
		Limiter:       lim,
		Mailer:        service.LogMailer{Log: logger.Named("mail")},
		Log:           logger.Named("auth"),
		BaseURL:       cfg.BaseURL,
		VerifyTTL:     cfg.VerifyTTL,
	})
	resSvc := service.NewResourceService(postgres.NewResourceRepo(db), postgres.NewTeamRepo(db))

	codec, err := session.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		return err
	}

	deps := httpserver.Deps{
		Auth:      authSvc,
		Resources: resSvc,
		Store:     session.NewCookieStore(codec, session.DefaultTTL),
		Verifier:  codec,
		Log:       logger,
	}
	if cfg.OIDC.Enabled() {
		idp, err := httpserver.NewOIDCProvider(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret,
			cfg.BaseURL+"/sign-in/oidc/callback")
		if err != nil {
			return err
		}
		deps.IdP = idp
		logger.Info("external sign-in enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.New(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			_ = srv.Close()
			return err
		}
		return nil
	})
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/app"
	appHTTP "github.com/cmlabs-hris/timeclock/internal/handler/http"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock/internal/pkg/log"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, location tracker and retention cleanup",
		Description: `Environment variables:
	TIMECLOCK_APP_PORT              (default: 8080)
	TIMECLOCK_APP_ENV               (default: development)
	TIMECLOCK_APP_CORS_ORIGINS      (default: http://localhost:3000)
	TIMECLOCK_JWT_SECRET            (required)
	TIMECLOCK_JWT_EXPIRATION        (default: 15m)
	TIMECLOCK_TRACKER_ENABLED       (default: true)
	TIMECLOCK_TRACKER_INTERVAL      (default: 1m)
	TIMECLOCK_RETENTION_DAYS        (default: 30)
	TIMECLOCK_RETENTION_INTERVAL    (default: 24h)
`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides TIMECLOCK_APP_PORT"},
		},
		Action: withApp(serve, app.WithTracking()),
	}
}

func serve(ctx context.Context, cmd *cli.Command, a *app.App) error {
	logger := log.FromContext(ctx)
	cfg := a.Config

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.StartBackground(ctx); err != nil {
		return err
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiration)
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		Version:        version,
		AllowedOrigins: cfg.App.CORSOrigins,
		LogLevel:       slog.Level(log.ParseLevel(cfg.App.LogLevel)),
	}, jwtService, appHTTP.Handlers{
		Shift:  appHTTP.NewShiftHandler(a.Attendance, a.Ledger),
		Master: appHTTP.NewMasterHandler(a.Master),
		Report: appHTTP.NewReportHandler(a.Reports),
		Sync:   appHTTP.NewSyncHandler(a.Sync),
		Admin:  appHTTP.NewAdminHandler(a.Master, a.Sync, jwtService),
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.App.Port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", addr, "store", cfg.Store.Driver, "remote", cfg.Sync.Remote)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

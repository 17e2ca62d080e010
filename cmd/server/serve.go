package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kasirlokal/backend/internal/config"
	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/httpapi"
	"kasirlokal/backend/internal/seed"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := validateSecurityConfig(cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close resources", zap.Error(err))
		}
	}()

	auth, err := newAuthManager(cfg)
	if err != nil {
		return err
	}
	logger.Info("accounts enabled", zap.Strings("users", auth.Usernames()))

	if cfg.SeedSampleData {
		result, err := seed.Sample(ctx, a.service)
		if err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
		logger.Info("sample data",
			zap.Int("products", result.Products),
			zap.Int("transactions", result.Transactions),
			zap.Bool("skipped", result.Skipped),
		)
	}

	api := httpapi.New(a.service, auth, cfg.AllowedOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.producer != nil {
		// stopped by a.Close, which flushes the inbox
		a.producer.Start(context.WithoutCancel(ctx))
	}
	g.Go(func() error {
		logger.Info("POS backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func newAuthManager(cfg config.Config) (*httpapi.AuthManager, error) {
	seeds := []httpapi.UserSeed{
		{Username: "admin", Password: cfg.AdminPassword, Role: domain.RoleAdmin},
		{Username: "kasir", Password: cfg.CashierPassword, Role: domain.RoleCashier},
	}
	ttl := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, ttl, cfg.ManagerPIN, seeds)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	if len(auth.Usernames()) == 0 {
		return nil, errors.New("no accounts enabled: set ADMIN_PASSWORD and/or CASHIER_PASSWORD")
	}
	return auth, nil
}

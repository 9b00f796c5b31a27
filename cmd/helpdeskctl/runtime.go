package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/persistence"
	"github.com/campus-it/helpdesk/internal/repository"
	"github.com/campus-it/helpdesk/internal/service"
)

// runtime holds what every command needs: configuration, a logger and a
// live Postgres pool.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if !pg.Enabled() {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return &runtime{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *runtime) Close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func (r *runtime) staffService() *service.StaffService {
	pool := r.pg.PoolHandle()
	settings := service.NewSettingsService(service.SettingsDependencies{
		SettingsRepo: repository.NewSettingsRepository(pool),
		Logger:       r.logger,
	})
	return service.NewStaffService(service.StaffDependencies{
		StaffRepo:         repository.NewStaffRepository(pool),
		SystemManagerRepo: repository.NewSystemManagerRepository(pool),
		Settings:          settings,
		BcryptCost:        r.cfg.Auth.BcryptCost,
		Logger:            r.logger,
	})
}

// readPassword returns the flag value when set, otherwise prompts twice on
// the terminal with echo disabled.
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for password prompt (use --password)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return strings.TrimSpace(string(first)), nil
}

package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// SettingsService owns the Settings singleton.
type SettingsService struct {
	repo   repository.SettingsRepository
	logger *zap.Logger
	mu     sync.Mutex
}

// SettingsDependencies bundles collaborators for the settings service.
type SettingsDependencies struct {
	SettingsRepo repository.SettingsRepository
	Logger       *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(deps SettingsDependencies) *SettingsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: deps.SettingsRepo, logger: logger}
}

// Get returns the current settings, creating the defaults on first access.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err == nil {
		return *settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Settings{}, apperrors.MapError(err)
	}

	settings, err = s.repo.CreateIfAbsent(ctx, domain.DefaultSettings())
	if err != nil {
		return domain.Settings{}, apperrors.MapError(err)
	}
	s.logger.Info("settings initialized with defaults")
	return *settings, nil
}

// Update applies mutate to the stored record. Updates are serialized so
// concurrent managers cannot lose each other's changes within this process.
func (s *SettingsService) Update(ctx context.Context, actor *domain.StaffMember, mutate func(*domain.Settings)) (domain.Settings, error) {
	if err := requireStaff(actor); err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := authorize(policy.SettingsManage, policy.Request{Actor: actor, Settings: current}); err != nil {
		return domain.Settings{}, err
	}

	updated := current
	mutate(&updated)
	if updated.Mail.Port < 0 || updated.Mail.Port > 65535 {
		return domain.Settings{}, apperrors.NewValidationError("smtp port is out of range",
			map[string]any{"smtp_port": updated.Mail.Port})
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return domain.Settings{}, apperrors.MapError(err)
	}
	s.logger.Info("settings updated", zap.String("staff_id", actor.ID))
	return updated, nil
}

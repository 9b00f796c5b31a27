package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
	"github.com/campus-it/helpdesk/pkg/util/validate"
)

// StaffService manages technicians and system managers.
type StaffService struct {
	staff      repository.StaffRepository
	managers   repository.SystemManagerRepository
	settings   *SettingsService
	bcryptCost int
	logger     *zap.Logger
}

// StaffDependencies bundles collaborators for the staff service.
type StaffDependencies struct {
	StaffRepo         repository.StaffRepository
	SystemManagerRepo repository.SystemManagerRepository
	Settings          *SettingsService
	BcryptCost        int
	Logger            *zap.Logger
}

// StaffInput describes a new staff account.
type StaffInput struct {
	FirstName  string `json:"first_name" validate:"required,max=150"`
	LastName   string `json:"last_name" validate:"required,max=150"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Department string `json:"department" validate:"max=100"`
}

// SystemManagerInput adds the manager profile to a staff account.
type SystemManagerInput struct {
	StaffInput
	JobTitle      string   `json:"job_title" validate:"max=100"`
	Departments   []string `json:"departments"`
	TechnicianIDs []string `json:"technician_ids"`
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Active *bool
	Limit  int
	Offset int
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		managers:   deps.SystemManagerRepo,
		settings:   deps.Settings,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// CreateTechnician registers a technician on behalf of a system manager.
func (s *StaffService) CreateTechnician(ctx context.Context, actor *domain.StaffMember, input StaffInput) (*domain.StaffMember, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	return s.RegisterTechnician(ctx, input)
}

// RegisterTechnician creates a technician without an acting caller. It is
// meant for provisioning tools.
func (s *StaffService) RegisterTechnician(ctx context.Context, input StaffInput) (*domain.StaffMember, error) {
	return s.createStaff(ctx, input, domain.StaffRoleTechnician)
}

// CreateSystemManager registers a system manager with a profile on behalf of
// another system manager.
func (s *StaffService) CreateSystemManager(ctx context.Context, actor *domain.StaffMember, input SystemManagerInput) (*domain.StaffMember, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	return s.RegisterSystemManager(ctx, input)
}

// RegisterSystemManager creates a system manager without an acting caller.
func (s *StaffService) RegisterSystemManager(ctx context.Context, input SystemManagerInput) (*domain.StaffMember, error) {
	for _, id := range input.TechnicianIDs {
		tech, err := s.staff.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
			}
			return nil, apperrors.MapError(err)
		}
		if tech.Role != domain.StaffRoleTechnician {
			return nil, apperrors.NewValidationError("managed staff must be technicians",
				map[string]any{"technician_ids": id})
		}
	}

	staff, err := s.createStaff(ctx, input.StaffInput, domain.StaffRoleSystemManager)
	if err != nil {
		return nil, err
	}
	var departments []string
	for _, d := range input.Departments {
		departments = append(departments, domain.ParseDepartments(d)...)
	}
	profile := &domain.SystemManagerProfile{
		StaffID:       staff.ID,
		JobTitle:      strings.TrimSpace(input.JobTitle),
		Departments:   departments,
		TechnicianIDs: input.TechnicianIDs,
	}
	if err := s.managers.Save(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// Profile returns the system manager profile for staffID.
func (s *StaffService) Profile(ctx context.Context, staffID string) (*domain.SystemManagerProfile, error) {
	profile, err := s.managers.GetByStaffID(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("system manager profile", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ListTechnicians returns technicians, e.g. for the assignment picker. Any
// staff member may list them.
func (s *StaffService) ListTechnicians(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	role := domain.StaffRoleTechnician
	items, err := s.staff.List(ctx, repository.StaffFilter{
		Role:   &role,
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// SetActive enables or disables a staff account. Managers cannot disable
// themselves.
func (s *StaffService) SetActive(ctx context.Context, actor *domain.StaffMember, staffID string, active bool) (*domain.StaffMember, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	if actor.ID == staffID && !active {
		return nil, apperrors.NewConflict("you cannot deactivate your own account", nil)
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	staff.Active = active
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff activation changed",
		zap.String("staff_id", staffID), zap.Bool("active", active), zap.String("actor_id", actor.ID))
	return staff, nil
}

func (s *StaffService) createStaff(ctx context.Context, input StaffInput, role domain.StaffRole) (*domain.StaffMember, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Department = strings.TrimSpace(input.Department)
	if err := validate.Struct(&input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	staff := &domain.StaffMember{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		Department:   input.Department,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff created", zap.String("staff_id", staff.ID), zap.String("role", string(role)))
	return staff, nil
}

func (s *StaffService) requireManager(ctx context.Context, actor *domain.StaffMember) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	return authorize(policy.StaffManage, policy.Request{Actor: actor, Settings: settings})
}

package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
)

type settingsStore struct{ s *Store }

func (r settingsStore) Get(_ context.Context) (*domain.Settings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.settings == nil {
		return nil, repository.ErrNotFound
	}
	c := *r.s.settings
	return &c, nil
}

func (r settingsStore) CreateIfAbsent(_ context.Context, defaults domain.Settings) (*domain.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.settings == nil {
		defaults.UpdatedAt = r.s.now()
		r.s.settings = &defaults
	}
	c := *r.s.settings
	return &c, nil
}

func (r settingsStore) Update(_ context.Context, settings *domain.Settings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.settings == nil {
		return repository.ErrNotFound
	}
	settings.UpdatedAt = r.s.now()
	c := *settings
	r.s.settings = &c
	return nil
}

type staffStore struct{ s *Store }

func (r staffStore) Create(_ context.Context, staff *domain.StaffMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(staff.Email, "") {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	staff.ID = newID()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	c := *staff
	r.s.staff[staff.ID] = &c
	return nil
}

func (r staffStore) Update(_ context.Context, staff *domain.StaffMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.staff[staff.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(staff.Email, staff.ID) {
		return repository.ErrDuplicate
	}
	staff.UpdatedAt = r.s.now()
	c := *staff
	r.s.staff[staff.ID] = &c
	return nil
}

func (r staffStore) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	staff, ok := r.s.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *staff
	return &c, nil
}

func (r staffStore) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, staff := range r.s.staff {
		if strings.EqualFold(staff.Email, email) {
			c := *staff
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r staffStore) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.StaffMember
	for _, staff := range r.s.staff {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, *staff)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(result, limit, filter.Offset), nil
}

func (r staffStore) emailTaken(email, exceptID string) bool {
	for id, staff := range r.s.staff {
		if id != exceptID && strings.EqualFold(staff.Email, email) {
			return true
		}
	}
	return false
}

type systemManagerStore struct{ s *Store }

func (r systemManagerStore) Save(_ context.Context, profile *domain.SystemManagerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.staff[profile.StaffID]; !ok {
		return repository.ErrReferenced
	}
	c := *profile
	c.Departments = append([]string(nil), profile.Departments...)
	c.TechnicianIDs = append([]string(nil), profile.TechnicianIDs...)
	r.s.profiles[profile.StaffID] = &c
	return nil
}

func (r systemManagerStore) GetByStaffID(_ context.Context, staffID string) (*domain.SystemManagerProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profile, ok := r.s.profiles[staffID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *profile
	c.Departments = append([]string(nil), profile.Departments...)
	c.TechnicianIDs = append([]string(nil), profile.TechnicianIDs...)
	return &c, nil
}

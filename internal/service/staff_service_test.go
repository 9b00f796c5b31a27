package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/domain"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

func TestCreateTechnicianIsManagerOnly(t *testing.T) {
	env := newTestEnv(t)
	tech := env.technician(t, "Linus", "linus@etsu.edu")
	input := StaffInput{FirstName: "Ken", LastName: "Thompson", Email: "ken@etsu.edu", Password: "long-enough"}

	_, err := env.staff.CreateTechnician(context.Background(), tech, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	created, err := env.staff.CreateTechnician(context.Background(), env.manager, input)
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleTechnician, created.Role)
	assert.True(t, created.Active)
	assert.NotEqual(t, "long-enough", created.PasswordHash)

	_, err = env.staff.CreateTechnician(context.Background(), env.manager, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestCreateSystemManagerStoresProfile(t *testing.T) {
	env := newTestEnv(t)
	tech := env.technician(t, "Linus", "linus@etsu.edu")

	manager, err := env.staff.CreateSystemManager(context.Background(), env.manager, SystemManagerInput{
		StaffInput:    StaffInput{FirstName: "Barbara", LastName: "Liskov", Email: "liskov@etsu.edu", Password: "long-enough"},
		JobTitle:      "Lab Manager",
		Departments:   []string{"Computing, Physics"},
		TechnicianIDs: []string{tech.ID},
	})
	require.NoError(t, err)
	assert.True(t, manager.IsSystemManager())

	profile, err := env.staff.Profile(context.Background(), manager.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Computing", "Physics"}, profile.Departments)
	assert.Equal(t, []string{tech.ID}, profile.TechnicianIDs)

	_, err = env.staff.CreateSystemManager(context.Background(), env.manager, SystemManagerInput{
		StaffInput:    StaffInput{FirstName: "X", LastName: "Y", Email: "xy@etsu.edu", Password: "long-enough"},
		TechnicianIDs: []string{manager.ID},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestListTechniciansFiltersActive(t *testing.T) {
	env := newTestEnv(t)
	env.technician(t, "Linus", "linus@etsu.edu")
	ken := env.technician(t, "Ken", "ken@etsu.edu")
	_, err := env.staff.SetActive(context.Background(), env.manager, ken.ID, false)
	require.NoError(t, err)

	active := true
	items, err := env.staff.ListTechnicians(context.Background(), env.manager, StaffListFilters{Active: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "linus@etsu.edu", items[0].Email)

	_, err = env.staff.SetActive(context.Background(), env.manager, env.manager.ID, false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLoginStaff(t *testing.T) {
	env := newTestEnv(t)
	tech := env.technician(t, "Linus", "linus@etsu.edu")

	staff, token, exp, err := env.auth.LoginStaff(context.Background(), "LINUS@etsu.edu", "technician-pass")
	require.NoError(t, err)
	assert.Equal(t, tech.ID, staff.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := env.auth.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, tech.ID, claims.Subject)

	_, _, _, err = env.auth.LoginStaff(context.Background(), "linus@etsu.edu", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = env.staff.SetActive(context.Background(), env.manager, tech.ID, false)
	require.NoError(t, err)
	_, _, _, err = env.auth.LoginStaff(context.Background(), "linus@etsu.edu", "technician-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	tech := env.technician(t, "Linus", "linus@etsu.edu")

	err := env.auth.ChangePassword(context.Background(), tech, PasswordChange{CurrentPassword: "nope", NewPassword: "another-pass"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	require.NoError(t, env.auth.ChangePassword(context.Background(), tech, PasswordChange{CurrentPassword: "technician-pass", NewPassword: "another-pass"}))
	_, _, _, err = env.auth.LoginStaff(context.Background(), "linus@etsu.edu", "another-pass")
	assert.NoError(t, err)
}

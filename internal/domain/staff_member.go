package domain

import (
	"strings"
	"time"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleTechnician    StaffRole = "TECHNICIAN"
	StaffRoleSystemManager StaffRole = "SYSTEM_MANAGER"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleTechnician || r == StaffRoleSystemManager
}

// StaffMember models a technician or system manager.
type StaffMember struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         StaffRole
	Department   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSystemManager reports whether the member has unconditional rights.
func (s *StaffMember) IsSystemManager() bool {
	return s != nil && s.Role == StaffRoleSystemManager
}

// FullName joins first and last name, falling back to the email.
func (s *StaffMember) FullName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

// SystemManagerProfile extends a system manager identity.
type SystemManagerProfile struct {
	StaffID       string
	JobTitle      string
	Departments   []string
	TechnicianIDs []string
}

// DepartmentsCSV renders Departments in their stored comma-separated form.
func (p *SystemManagerProfile) DepartmentsCSV() string {
	return strings.Join(p.Departments, ",")
}

// ParseDepartments splits a comma-separated department list.
func ParseDepartments(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

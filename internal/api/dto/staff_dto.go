package dto

import (
	"time"

	"github.com/campus-it/helpdesk/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateTechnicianRequest payload.
type CreateTechnicianRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// CreateSystemManagerRequest payload.
type CreateSystemManagerRequest struct {
	CreateTechnicianRequest
	JobTitle      string   `json:"job_title"`
	Departments   []string `json:"departments"`
	TechnicianIDs []string `json:"technician_ids"`
}

// SystemManagerProfileResponse is attached to system manager accounts.
type SystemManagerProfileResponse struct {
	JobTitle      string   `json:"job_title"`
	Departments   []string `json:"departments"`
	TechnicianIDs []string `json:"technician_ids"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// StaffResponse describes a staff member without credentials.
type StaffResponse struct {
	ID         string           `json:"id"`
	FirstName  string           `json:"first_name"`
	LastName   string           `json:"last_name"`
	FullName   string           `json:"full_name"`
	Email      string           `json:"email"`
	Role       domain.StaffRole `json:"role"`
	Department string           `json:"department"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"created_at"`

	Profile *SystemManagerProfileResponse `json:"profile,omitempty"`
}

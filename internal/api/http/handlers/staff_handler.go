package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// StaffHandler exposes staff auth and account endpoints.
type StaffHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, staffService: staffService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	staff, token, exp, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Me handles GET /staff/me. System managers also get their profile.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	resp := staffResponse(staff)
	if staff.IsSystemManager() {
		profile, err := h.staffService.Profile(c.UserContext(), staff.ID)
		if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return err
		}
		if profile != nil {
			resp.Profile = &dto.SystemManagerProfileResponse{
				JobTitle:      profile.JobTitle,
				Departments:   profile.Departments,
				TechnicianIDs: profile.TechnicianIDs,
			}
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ChangePassword handles PUT /staff/me/password.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.authService.ChangePassword(c.UserContext(), staff, service.PasswordChange{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// ListTechnicians handles GET /staff/technicians.
func (h *StaffHandler) ListTechnicians(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filters := service.StaffListFilters{}
	if active := c.Query("active"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			return apperrors.NewValidationError("active must be true or false", map[string]any{"active": active})
		}
		filters.Active = &v
	}
	filters.Limit = parseInt(c.Query("limit"), 50)
	filters.Offset = parseInt(c.Query("offset"), 0)

	items, err := h.staffService.ListTechnicians(c.UserContext(), staff, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(items))
	for i := range items {
		resp = append(resp, staffResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateTechnician handles POST /staff/technicians.
func (h *StaffHandler) CreateTechnician(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.staffService.CreateTechnician(c.UserContext(), actor, service.StaffInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(created)})
}

// CreateSystemManager handles POST /staff/system-managers.
func (h *StaffHandler) CreateSystemManager(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateSystemManagerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.staffService.CreateSystemManager(c.UserContext(), actor, service.SystemManagerInput{
		StaffInput: service.StaffInput{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			Password:   req.Password,
			Department: req.Department,
		},
		JobTitle:      req.JobTitle,
		Departments:   req.Departments,
		TechnicianIDs: req.TechnicianIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(created)})
}

// SetActive handles PUT /staff/technicians/:id/active.
func (h *StaffHandler) SetActive(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.staffService.SetActive(c.UserContext(), actor, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// SettingsHandler reads and updates the settings record.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get GET /staff/settings. Any staff member may read the settings; the
// dashboard uses them to decide what to offer.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	current, err := h.settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(current)})
}

// Update PUT /staff/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.settings.Update(c.UserContext(), staff, func(s *domain.Settings) {
		applySettings(s, req)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(updated)})
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applySettings(s *domain.Settings, req dto.UpdateSettingsRequest) {
	setBool(&s.TicketVisibility, req.TicketVisibility)
	setBool(&s.TicketSelfAssignment, req.TicketSelfAssignment)
	setBool(&s.AssetVisibility, req.AssetVisibility)
	setBool(&s.CanModifyAssignedAssets, req.CanModifyAssignedAssets)
	setBool(&s.CanModifyAllAssets, req.CanModifyAllAssets)

	setBool(&s.NotifyTicketCreated, req.NotifyTicketCreated)
	setBool(&s.NotifyStatusChanged, req.NotifyStatusChanged)
	setBool(&s.NotifyNewMessage, req.NotifyNewMessage)
	setBool(&s.NotifyTicketAssigned, req.NotifyTicketAssigned)
	setBool(&s.NotifyTicketResolved, req.NotifyTicketResolved)
	setBool(&s.NotifyApproachingSLA, req.NotifyApproachingSLA)
	setBool(&s.NotifySLABreach, req.NotifySLABreach)

	setBool(&s.Mail.Enabled, req.SMTPEnabled)
	setString(&s.Mail.Username, req.SMTPUsername)
	setString(&s.Mail.Password, req.SMTPPassword)
	setString(&s.Mail.Host, req.SMTPHost)
	setBool(&s.Mail.UseTLS, req.SMTPUseTLS)
	setString(&s.Mail.FromEmail, req.SMTPFromEmail)
	if req.SMTPPort != nil {
		s.Mail.Port = *req.SMTPPort
	}
}

func settingsResponse(s domain.Settings) dto.SettingsResponse {
	return dto.SettingsResponse{
		TicketVisibility:        s.TicketVisibility,
		TicketSelfAssignment:    s.TicketSelfAssignment,
		AssetVisibility:         s.AssetVisibility,
		CanModifyAssignedAssets: s.CanModifyAssignedAssets,
		CanModifyAllAssets:      s.CanModifyAllAssets,
		NotifyTicketCreated:     s.NotifyTicketCreated,
		NotifyStatusChanged:     s.NotifyStatusChanged,
		NotifyNewMessage:        s.NotifyNewMessage,
		NotifyTicketAssigned:    s.NotifyTicketAssigned,
		NotifyTicketResolved:    s.NotifyTicketResolved,
		NotifyApproachingSLA:    s.NotifyApproachingSLA,
		NotifySLABreach:         s.NotifySLABreach,
		SMTPEnabled:             s.Mail.Enabled,
		SMTPUsername:            s.Mail.Username,
		SMTPPasswordSet:         s.Mail.Password != "",
		SMTPHost:                s.Mail.Host,
		SMTPPort:                s.Mail.Port,
		SMTPUseTLS:              s.Mail.UseTLS,
		SMTPFromEmail:           s.Mail.FromEmail,
		UpdatedAt:               s.UpdatedAt,
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// StaffTicketsHandler handles the staff dashboard and ticket actions.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
	assets      *service.AssetService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService, assets *service.AssetService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, assignments: assignments, assets: assets}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.ListForActor(c.UserContext(), staff, parseStaffTicketFilter(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketSummary(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:        items,
		Total:        page.Total,
		StatusCounts: page.StatusCounts,
	}})
}

// GetStaffTicket GET /staff/tickets/:number.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetForStaff(c.UserContext(), staff, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// DownloadAttachment GET /staff/tickets/:number/attachments/:id.
func (h *StaffTicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	record, body, err := h.tickets.OpenAttachment(c.UserContext(), staff, c.Params("number"), c.Params("id"))
	if err != nil {
		return err
	}
	return sendAttachment(c, record, body)
}

// UpdateStatus PUT /staff/tickets/:number/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), staff, c.Params("number"), req.Status)
	return h.ticketResult(c, ticket, err)
}

// Assign PUT /staff/tickets/:number/assignee.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignments.Assign(c.UserContext(), staff, c.Params("number"), req.TechnicianID)
	return h.ticketResult(c, ticket, err)
}

// SelfAssign POST /staff/tickets/:number/self-assign.
func (h *StaffTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignments.SelfAssign(c.UserContext(), staff, c.Params("number"))
	return h.ticketResult(c, ticket, err)
}

// AddStaffMessage POST /staff/tickets/:number/messages.
func (h *StaffTicketsHandler) AddStaffMessage(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.tickets.PostStaffMessage(c.UserContext(), staff, c.Params("number"), req.Content)
	if err != nil {
		if msg != nil {
			return withDeliveryDetails(err, map[string]any{"ticket_number": c.Params("number")})
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// Acknowledge POST /staff/tickets/:number/acknowledge.
func (h *StaffTicketsHandler) Acknowledge(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.AcknowledgeResponses(c.UserContext(), staff, c.Params("number"))
	return h.ticketResult(c, ticket, err)
}

// LinkAsset POST /staff/tickets/:number/assets.
func (h *StaffTicketsHandler) LinkAsset(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LinkAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.InventoryNumber) == "" {
		return apperrors.NewValidationError("inventory_number is required", map[string]any{"inventory_number": "inventory_number is required"})
	}
	asset, err := h.assets.AddToTicket(c.UserContext(), staff, c.Params("number"), req.InventoryNumber)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": assetResponse(asset, false)})
}

// UnlinkAsset DELETE /staff/tickets/:number/assets/:assetID.
func (h *StaffTicketsHandler) UnlinkAsset(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.assets.RemoveFromTicket(c.UserContext(), staff, c.Params("number"), c.Params("assetID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ticketResult renders a ticket mutation. When only notification delivery
// failed the change is kept and the error names the ticket.
func (h *StaffTicketsHandler) ticketResult(c *fiber.Ctx, ticket *domain.Ticket, err error) error {
	if err != nil {
		if ticket != nil {
			return withDeliveryDetails(err, map[string]any{"ticket_number": ticket.TicketNumber})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseStaffTicketFilter(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   c.Query("sort"),
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(strings.ToUpper(status))
		filter.Status = &s
	}
	if typ := c.Query("type"); typ != "" {
		t := domain.TicketType(strings.ToUpper(typ))
		filter.Type = &t
	}
	filter.Limit, filter.Offset = pageBounds(c)
	return filter
}

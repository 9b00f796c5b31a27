package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

const attachmentsField = "attachments"

// TicketsHandler serves the public requestor endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	access  *service.AccessService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, access *service.AccessService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, access: access}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.SubmitInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Title:           req.Title,
		Description:     req.Description,
		Type:            domain.TicketType(strings.ToUpper(strings.TrimSpace(req.Type))),
		SubType:         domain.TicketSubType(strings.ToUpper(strings.TrimSpace(req.SubType))),
		Item:            strings.TrimSpace(req.Item),
		InventoryNumber: req.InventoryNumber,
		AssetType:       domain.AssetType(strings.TrimSpace(req.AssetType)),
	}

	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable attachment", map[string]any{"attachments": fh.Filename})
		}
		defer f.Close()
		input.Attachments = append(input.Attachments, service.AttachmentUpload{
			FileName: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		})
	}

	ticket, err := h.tickets.Submit(c.UserContext(), input)
	if err != nil {
		if ticket != nil {
			return withDeliveryDetails(err, map[string]any{
				"ticket_number": ticket.TicketNumber,
				"access_code":   ticket.AccessCode,
			})
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SubmitTicketResponse{
		TicketNumber: ticket.TicketNumber,
		AccessCode:   ticket.AccessCode,
		Status:       ticket.Status,
		CreatedAt:    ticket.CreatedAt,
	}})
}

func uploadedFiles(c *fiber.Ctx) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	return form.File[attachmentsField], nil
}

// AccessTicket POST /tickets/access.
func (h *TicketsHandler) AccessTicket(c *fiber.Ctx) error {
	var req dto.TicketAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.access.Authenticate(c.UserContext(), c.IP(), credentials(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestorTicket(view)})
}

// AddMessage POST /tickets/:number/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.RequestorMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.TicketNumber = c.Params("number")
	msg, err := h.access.PostRequestorMessage(c.UserContext(), c.IP(), credentials(req.TicketAccessRequest), req.Content)
	if err != nil {
		if msg != nil {
			return withDeliveryDetails(err, map[string]any{"ticket_number": req.TicketNumber})
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// DownloadAttachment POST /tickets/:number/attachments/:id. Credentials
// travel in the body so the access code stays out of URLs and logs.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	var req dto.TicketAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.TicketNumber = c.Params("number")
	record, body, err := h.access.OpenAttachment(c.UserContext(), c.IP(), credentials(req), c.Params("id"))
	if err != nil {
		return err
	}
	return sendAttachment(c, record, body)
}

func credentials(req dto.TicketAccessRequest) service.Credentials {
	return service.Credentials{
		Email:        req.Email,
		TicketNumber: req.TicketNumber,
		AccessCode:   req.AccessCode,
	}
}

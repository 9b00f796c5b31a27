package handlers

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	staff := auth.StaffFromContext(c)
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff authentication required")
	}
	return staff, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func pageBounds(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	limit = parseInt(c.Query("page_size"), service.DefaultPageSize)
	return limit, (page - 1) * limit
}

// withDeliveryDetails adds identifiers to a DELIVERY_FAILED error so the
// caller learns the operation itself succeeded. Other errors pass through.
func withDeliveryDetails(err error, details map[string]any) error {
	if !apperrors.HasCode(err, apperrors.CodeDeliveryFailed) {
		return err
	}
	src := apperrors.ToDomainError(err)
	merged := make(map[string]any, len(src.Details)+len(details))
	for k, v := range src.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &apperrors.DomainError{
		Code:       src.Code,
		Message:    src.Message,
		HTTPStatus: src.HTTPStatus,
		Details:    merged,
		Err:        src.Err,
	}
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		TicketNumber:    ticket.TicketNumber,
		Title:           ticket.Title,
		Type:            ticket.Type,
		Category:        ticket.Category,
		SubCategory:     ticket.SubCategory,
		Status:          ticket.Status,
		StatusLabel:     ticket.Status.Label(),
		RequestorName:   ticket.RequestorName,
		RequestorEmail:  ticket.RequestorEmail,
		AssignedToID:    ticket.AssignedToID,
		HasNewResponses: ticket.HasNewResponses,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	assets := make([]dto.AssetResponse, 0, len(detail.Assets))
	for i := range detail.Assets {
		assets = append(assets, assetResponse(&detail.Assets[i], false))
	}
	return dto.TicketDetailResponse{
		TicketSummary:  ticketSummary(&detail.Ticket),
		Description:    detail.Ticket.Description,
		RequestorPhone: detail.Ticket.RequestorPhone,
		SubType:        detail.Ticket.SubType,
		Item:           detail.Ticket.Item,
		Messages:       messageResponses(detail.Messages),
		Attachments:    attachmentResponses(detail.Attachments),
		Assets:         assets,
	}
}

func requestorTicket(view *service.RequestorView) dto.RequestorTicketResponse {
	t := view.Ticket
	return dto.RequestorTicketResponse{
		TicketNumber: t.TicketNumber,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		SubCategory:  t.SubCategory,
		Status:       t.Status,
		StatusLabel:  t.Status.Label(),
		CreatedAt:    t.CreatedAt,
		Messages:     messageResponses(view.Messages),
		Attachments:  attachmentResponses(view.Attachments),
	}
}

func ticketMessageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:              msg.ID,
		SenderEmail:     msg.SenderEmail,
		IsFromRequestor: msg.IsFromRequestor,
		Content:         msg.Content,
		CreatedAt:       msg.CreatedAt,
	}
}

func messageResponses(msgs []domain.TicketMessage) []dto.TicketMessageResponse {
	out := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ticketMessageResponse(&msgs[i]))
	}
	return out
}

func attachmentResponses(files []domain.TicketAttachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, 0, len(files))
	for _, f := range files {
		out = append(out, dto.AttachmentResponse{
			ID:         f.ID,
			FileName:   f.FileName,
			SizeBytes:  f.SizeBytes,
			UploadedAt: f.UploadedAt,
		})
	}
	return out
}

// sendAttachment streams body as a download; fasthttp closes it once written.
func sendAttachment(c *fiber.Ctx, record *domain.TicketAttachment, body io.ReadCloser) error {
	c.Attachment(record.FileName)
	return c.SendStream(body, int(record.SizeBytes))
}

func assetResponse(asset *domain.Asset, withSecrets bool) dto.AssetResponse {
	resp := dto.AssetResponse{
		ID:              asset.ID,
		InventoryNumber: asset.InventoryNumber,
		Name:            asset.Name,
		Type:            asset.Type,
		TypeLabel:       asset.Type.Label(),
		Location:        asset.Location,
		Details:         asset.Details,
		PurchaseDate:    asset.PurchaseDate,
		IsActive:        asset.IsActive,
		UpdatedAt:       asset.UpdatedAt,
	}
	if withSecrets {
		resp.BitLockerKey = asset.BitLockerKey
	}
	return resp
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:         staff.ID,
		FirstName:  staff.FirstName,
		LastName:   staff.LastName,
		FullName:   staff.FullName(),
		Email:      staff.Email,
		Role:       staff.Role,
		Department: staff.Department,
		Active:     staff.Active,
		CreatedAt:  staff.CreatedAt,
	}
}

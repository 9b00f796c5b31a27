package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	"github.com/campus-it/helpdesk/internal/storage"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
	"github.com/campus-it/helpdesk/pkg/util/validate"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	sequences   repository.TicketSequenceRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	files       storage.AttachmentStore
	settings    *SettingsService
	assets      *AssetService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	submission  config.SubmissionConfig
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	SequenceRepo   repository.TicketSequenceRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	Files          storage.AttachmentStore
	Settings       *SettingsService
	Assets         *AssetService
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Submission     config.SubmissionConfig
	// Now defaults to time.Now; the year of its result numbers new tickets.
	Now func() time.Time
}

// SubmitInput is the public ticket form.
type SubmitInput struct {
	Name            string               `json:"name" validate:"required,max=100"`
	Email           string               `json:"email" validate:"required,email,max=254"`
	Phone           string               `json:"phone" validate:"max=20"`
	Title           string               `json:"title" validate:"required,max=200"`
	Description     string               `json:"description" validate:"required"`
	Type            domain.TicketType    `json:"type" validate:"required,oneof=INC REQ"`
	SubType         domain.TicketSubType `json:"sub_type" validate:"required"`
	Item            string               `json:"item" validate:"required"`
	InventoryNumber string               `json:"inventory_number" validate:"max=50"`
	AssetType       domain.AssetType     `json:"asset_type" validate:"required_with=InventoryNumber"`
	Attachments     []AttachmentUpload   `json:"-"`
}

// AttachmentUpload is one uploaded file. Size is the declared size.
type AttachmentUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// TicketListFilter describes dashboard filters.
type TicketListFilter struct {
	Search string
	Status *domain.TicketStatus
	Type   *domain.TicketType
	Sort   string
	Limit  int
	Offset int
}

// TicketPage is one dashboard page plus per-status counts over the caller's
// visible tickets.
type TicketPage struct {
	Items        []domain.Ticket
	Total        int
	StatusCounts map[domain.TicketStatus]int
}

// TicketDetail is the full staff view of a ticket.
type TicketDetail struct {
	Ticket      domain.Ticket
	Messages    []domain.TicketMessage
	Attachments []domain.TicketAttachment
	Assets      []domain.Asset
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		sequences:   deps.SequenceRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		files:       deps.Files,
		settings:    deps.Settings,
		assets:      deps.Assets,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		submission:  deps.Submission,
		now:         now,
	}
}

// Submit validates and records a new ticket from the public form. All input
// is checked before anything is written. The returned ticket carries the
// access code; when only notification delivery fails the ticket is returned
// together with the error.
func (s *TicketService) Submit(ctx context.Context, input SubmitInput) (*domain.Ticket, error) {
	if err := s.validateSubmission(&input); err != nil {
		return nil, err
	}
	subTypeLabel := input.SubType.Label()
	itemLabel, _ := input.SubType.ItemLabel(input.Item)

	year := s.now().Year()
	seq, err := s.sequences.Next(ctx, year)
	if err != nil {
		return nil, apperrors.MapError(fmt.Errorf("allocate ticket number: %w", err))
	}
	code, err := auth.GenerateAccessCode()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ticket := &domain.Ticket{
		TicketNumber:   domain.FormatTicketNumber(year, seq),
		AccessCode:     code,
		RequestorName:  input.Name,
		RequestorEmail: input.Email,
		RequestorPhone: input.Phone,
		Title:          input.Title,
		Description:    input.Description,
		Type:           input.Type,
		SubType:        input.SubType,
		Item:           input.Item,
		Category:       subTypeLabel,
		SubCategory:    itemLabel,
		Status:         domain.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.InventoryNumber != "" {
		if _, err := s.assets.LinkOrCreate(ctx, ticket, input.InventoryNumber, input.AssetType); err != nil {
			return nil, err
		}
	}
	for _, upload := range input.Attachments {
		if err := s.storeAttachment(ctx, ticket, upload); err != nil {
			return nil, err
		}
	}

	s.metrics.TicketCreated()
	s.logger.Info("ticket submitted", zap.String("ticket_number", ticket.TicketNumber), zap.String("type", string(ticket.Type)))

	err = publishEvent(ctx, s.dispatcher, events.Event{
		Type:   events.EventTicketCreated,
		Ticket: *ticket,
		Actor:  requestorActor(ticket.RequestorEmail),
	})
	return ticket, err
}

func (s *TicketService) validateSubmission(input *SubmitInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.InventoryNumber = strings.TrimSpace(input.InventoryNumber)

	if err := validate.Struct(input); err != nil {
		return err
	}

	fields := map[string]any{}
	if d := s.submission.EmailDomain; d != "" && !strings.HasSuffix(strings.ToLower(input.Email), "@"+d) {
		fields["email"] = fmt.Sprintf("please use your @%s email address", d)
	}
	if !input.SubType.Valid() {
		fields["sub_type"] = "sub_type is invalid"
	} else if _, ok := input.SubType.ItemLabel(input.Item); !ok {
		fields["item"] = fmt.Sprintf("item is not valid for %s", input.SubType.Label())
	}
	if input.InventoryNumber != "" && !input.AssetType.Valid() {
		fields["asset_type"] = "asset_type is invalid"
	}
	for _, upload := range input.Attachments {
		if s.submission.MaxAttachmentBytes > 0 && upload.Size > s.submission.MaxAttachmentBytes {
			fields["attachments"] = fmt.Sprintf("%s exceeds the %d MB limit", upload.FileName, s.submission.MaxAttachmentBytes/(1024*1024))
			break
		}
	}
	if len(fields) > 0 {
		messages := make([]string, 0, len(fields))
		for _, msg := range fields {
			messages = append(messages, fmt.Sprint(msg))
		}
		return apperrors.NewValidationError(strings.Join(messages, "; "), fields)
	}
	return nil
}

func (s *TicketService) storeAttachment(ctx context.Context, ticket *domain.Ticket, upload AttachmentUpload) error {
	if s.files == nil {
		return apperrors.NewInternalError(errors.New("attachment storage not configured"))
	}
	key, size, err := s.files.Save(ctx, upload.FileName, upload.Content)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return apperrors.NewValidationError("attachment is too large", map[string]any{"attachments": upload.FileName})
		}
		return apperrors.NewInternalError(err)
	}
	record := &domain.TicketAttachment{
		TicketID:   ticket.ID,
		StorageKey: key,
		FileName:   upload.FileName,
		SizeBytes:  size,
	}
	if err := s.attachments.Create(ctx, record); err != nil {
		_ = s.files.Delete(ctx, key)
		return apperrors.MapError(err)
	}
	return nil
}

// ListForActor returns the dashboard page for staff. Without ticket
// visibility a technician sees only tickets assigned to them.
func (s *TicketService) ListForActor(ctx context.Context, staff *domain.StaffMember, filter TicketListFilter) (TicketPage, error) {
	if err := requireStaff(staff); err != nil {
		return TicketPage{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return TicketPage{}, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return TicketPage{}, apperrors.NewValidationError("status is invalid", map[string]any{"status": *filter.Status})
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return TicketPage{}, apperrors.NewValidationError("type is invalid", map[string]any{"type": *filter.Type})
	}

	var scope *string
	if !policy.Allowed(policy.TicketListAll, policy.Request{Actor: staff, Settings: settings}) {
		scope = &staff.ID
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	items, total, err := s.tickets.List(ctx, repository.TicketFilter{
		AssigneeID: scope,
		Search:     filter.Search,
		Status:     filter.Status,
		Type:       filter.Type,
		Sort:       filter.Sort,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return TicketPage{}, apperrors.MapError(err)
	}
	counts, err := s.tickets.CountByStatus(ctx, scope)
	if err != nil {
		return TicketPage{}, apperrors.MapError(err)
	}
	return TicketPage{Items: items, Total: total, StatusCounts: counts}, nil
}

// GetForStaff returns a ticket with its thread, files and assets.
func (s *TicketService) GetForStaff(ctx context.Context, staff *domain.StaffMember, number string) (*TicketDetail, error) {
	ticket, _, err := s.ticketForStaff(ctx, staff, number)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, ticket)
}

func (s *TicketService) detail(ctx context.Context, ticket *domain.Ticket) (*TicketDetail, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	files, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	assets, err := s.assets.ListForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: *ticket, Messages: msgs, Attachments: files, Assets: assets}, nil
}

// OpenAttachment streams one attachment of a ticket the caller may view.
func (s *TicketService) OpenAttachment(ctx context.Context, staff *domain.StaffMember, number, attachmentID string) (*domain.TicketAttachment, io.ReadCloser, error) {
	ticket, _, err := s.ticketForStaff(ctx, staff, number)
	if err != nil {
		return nil, nil, err
	}
	return openAttachment(ctx, s.attachments, s.files, ticket, attachmentID)
}

// UpdateStatus sets any of the six statuses; there is no transition table.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status is invalid", map[string]any{"status": status})
	}
	ticket, _, err := s.ticketForStaff(ctx, staff, number)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket, err = s.tickets.SetStatus(ctx, ticket.ID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ticket status changed",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(status)),
		zap.String("staff_id", staff.ID))

	err = publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketStatusChanged,
		Ticket:  *ticket,
		Actor:   staffActor(staff),
		Payload: events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
	})
	return ticket, err
}

// PostStaffMessage appends a staff reply and rotates the access code so the
// previous code stops working immediately.
func (s *TicketService) PostStaffMessage(ctx context.Context, staff *domain.StaffMember, number, content string) (*domain.TicketMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"content": "content is required"})
	}
	ticket, _, err := s.ticketForStaff(ctx, staff, number)
	if err != nil {
		return nil, err
	}

	senderID := staff.ID
	msg := &domain.TicketMessage{
		TicketID:    ticket.ID,
		SenderID:    &senderID,
		SenderEmail: staff.Email,
		Content:     content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	code, err := auth.RotateAccessCode(ticket.AccessCode)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ticket, err = s.tickets.SetAccessCode(ctx, ticket.ID, code)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	err = publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketMessageAdded,
		Ticket:  *ticket,
		Actor:   staffActor(staff),
		Payload: events.TicketMessageAddedPayload{Message: *msg},
	})
	return msg, err
}

// AcknowledgeResponses clears the new-responses flag once staff have read
// the requestor's messages.
func (s *TicketService) AcknowledgeResponses(ctx context.Context, staff *domain.StaffMember, number string) (*domain.Ticket, error) {
	ticket, _, err := s.ticketForStaff(ctx, staff, number)
	if err != nil {
		return nil, err
	}
	if !ticket.HasNewResponses {
		return ticket, nil
	}
	updated, err := s.tickets.SetHasNewResponses(ctx, ticket.ID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

func (s *TicketService) ticketForStaff(ctx context.Context, staff *domain.StaffMember, number string) (*domain.Ticket, domain.Settings, error) {
	if err := requireStaff(staff); err != nil {
		return nil, domain.Settings{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	ticket, err := loadTicket(ctx, s.tickets, number)
	if err != nil {
		return nil, settings, err
	}
	req := policy.Request{Actor: staff, Settings: settings, Owns: ticket.IsAssignedTo(staff.ID)}
	if err := authorize(policy.TicketView, req); err != nil {
		return nil, settings, err
	}
	return ticket, settings, nil
}

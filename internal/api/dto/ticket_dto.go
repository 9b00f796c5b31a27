package dto

import (
	"time"

	"github.com/campus-it/helpdesk/internal/domain"
)

// SubmitTicketRequest is the public ticket form. It arrives as multipart form
// data when files are attached, JSON otherwise.
type SubmitTicketRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Title           string `json:"title" form:"title"`
	Description     string `json:"description" form:"description"`
	Type            string `json:"type" form:"type"`
	SubType         string `json:"sub_type" form:"sub_type"`
	Item            string `json:"item" form:"item"`
	InventoryNumber string `json:"inventory_number" form:"inventory_number"`
	AssetType       string `json:"asset_type" form:"asset_type"`
}

// SubmitTicketResponse is returned once; the access code is never shown
// again except by email.
type SubmitTicketResponse struct {
	TicketNumber string              `json:"ticket_number"`
	AccessCode   string              `json:"access_code"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// TicketAccessRequest carries requestor credentials.
type TicketAccessRequest struct {
	Email        string `json:"email"`
	TicketNumber string `json:"ticket_number"`
	AccessCode   string `json:"access_code"`
}

// RequestorMessageRequest is a requestor reply; credentials travel with it.
type RequestorMessageRequest struct {
	TicketAccessRequest
	Content string `json:"content"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload. A null technician_id unassigns.
type AssignTicketRequest struct {
	TechnicianID *string `json:"technician_id"`
}

// LinkAssetRequest payload.
type LinkAssetRequest struct {
	InventoryNumber string `json:"inventory_number"`
}

// TicketSummary response.
type TicketSummary struct {
	TicketNumber    string              `json:"ticket_number"`
	Title           string              `json:"title"`
	Type            domain.TicketType   `json:"type"`
	Category        string              `json:"category"`
	SubCategory     string              `json:"sub_category"`
	Status          domain.TicketStatus `json:"status"`
	StatusLabel     string              `json:"status_label"`
	RequestorName   string              `json:"requestor_name"`
	RequestorEmail  string              `json:"requestor_email"`
	AssignedToID    *string             `json:"assigned_to_id"`
	HasNewResponses bool                `json:"has_new_responses"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketListResponse is one dashboard page.
type TicketListResponse struct {
	Items        []TicketSummary             `json:"items"`
	Total        int                         `json:"total"`
	StatusCounts map[domain.TicketStatus]int `json:"status_counts"`
}

// TicketDetailResponse provides full ticket info to staff.
type TicketDetailResponse struct {
	TicketSummary
	Description    string                  `json:"description"`
	RequestorPhone string                  `json:"requestor_phone"`
	SubType        domain.TicketSubType    `json:"sub_type"`
	Item           string                  `json:"item"`
	Messages       []TicketMessageResponse `json:"messages"`
	Attachments    []AttachmentResponse    `json:"attachments"`
	Assets         []AssetResponse         `json:"assets"`
}

// RequestorTicketResponse is the requestor's view of their ticket.
type RequestorTicketResponse struct {
	TicketNumber string                  `json:"ticket_number"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	SubCategory  string                  `json:"sub_category"`
	Status       domain.TicketStatus     `json:"status"`
	StatusLabel  string                  `json:"status_label"`
	CreatedAt    time.Time               `json:"created_at"`
	Messages     []TicketMessageResponse `json:"messages"`
	Attachments  []AttachmentResponse    `json:"attachments"`
}

// TicketMessageResponse represents thread message.
type TicketMessageResponse struct {
	ID              string    `json:"id"`
	SenderEmail     string    `json:"sender_email"`
	IsFromRequestor bool      `json:"is_from_requestor"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

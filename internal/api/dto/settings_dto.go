package dto

import "time"

// SettingsResponse mirrors the settings record. The SMTP password is
// reported only as set or unset.
type SettingsResponse struct {
	TicketVisibility        bool `json:"ticket_visibility"`
	TicketSelfAssignment    bool `json:"ticket_self_assignment"`
	AssetVisibility         bool `json:"asset_visibility"`
	CanModifyAssignedAssets bool `json:"can_modify_assigned_assets"`
	CanModifyAllAssets      bool `json:"can_modify_all_assets"`

	NotifyTicketCreated  bool `json:"notify_ticket_created"`
	NotifyStatusChanged  bool `json:"notify_status_changed"`
	NotifyNewMessage     bool `json:"notify_new_message"`
	NotifyTicketAssigned bool `json:"notify_ticket_assigned"`
	NotifyTicketResolved bool `json:"notify_ticket_resolved"`
	NotifyApproachingSLA bool `json:"notify_approaching_sla"`
	NotifySLABreach      bool `json:"notify_sla_breach"`

	SMTPEnabled     bool   `json:"smtp_enabled"`
	SMTPUsername    string `json:"smtp_username"`
	SMTPPasswordSet bool   `json:"smtp_password_set"`
	SMTPHost        string `json:"smtp_host"`
	SMTPPort        int    `json:"smtp_port"`
	SMTPUseTLS      bool   `json:"smtp_use_tls"`
	SMTPFromEmail   string `json:"smtp_from_email"`

	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is a partial update; omitted fields keep their value.
type UpdateSettingsRequest struct {
	TicketVisibility        *bool `json:"ticket_visibility"`
	TicketSelfAssignment    *bool `json:"ticket_self_assignment"`
	AssetVisibility         *bool `json:"asset_visibility"`
	CanModifyAssignedAssets *bool `json:"can_modify_assigned_assets"`
	CanModifyAllAssets      *bool `json:"can_modify_all_assets"`

	NotifyTicketCreated  *bool `json:"notify_ticket_created"`
	NotifyStatusChanged  *bool `json:"notify_status_changed"`
	NotifyNewMessage     *bool `json:"notify_new_message"`
	NotifyTicketAssigned *bool `json:"notify_ticket_assigned"`
	NotifyTicketResolved *bool `json:"notify_ticket_resolved"`
	NotifyApproachingSLA *bool `json:"notify_approaching_sla"`
	NotifySLABreach      *bool `json:"notify_sla_breach"`

	SMTPEnabled   *bool   `json:"smtp_enabled"`
	SMTPUsername  *string `json:"smtp_username"`
	SMTPPassword  *string `json:"smtp_password"`
	SMTPHost      *string `json:"smtp_host"`
	SMTPPort      *int    `json:"smtp_port"`
	SMTPUseTLS    *bool   `json:"smtp_use_tls"`
	SMTPFromEmail *string `json:"smtp_from_email"`
}

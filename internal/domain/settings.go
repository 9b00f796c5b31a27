package domain

import "time"

// NotificationKind names a lifecycle event that may trigger an email.
type NotificationKind string

const (
	NotifyTicketCreated  NotificationKind = "ticket_created"
	NotifyStatusChanged  NotificationKind = "status_changed"
	NotifyNewMessage     NotificationKind = "new_message"
	NotifyTicketAssigned NotificationKind = "ticket_assigned"
	NotifyTicketResolved NotificationKind = "ticket_resolved"
	NotifyApproachingSLA NotificationKind = "approaching_sla"
	NotifySLABreach      NotificationKind = "sla_breach"
)

// MailSettings configures outbound notification delivery.
type MailSettings struct {
	Enabled   bool
	Username  string
	Password  string
	Host      string
	Port      int
	UseTLS    bool
	FromEmail string
}

// Configured reports whether delivery should be attempted at all.
func (m MailSettings) Configured() bool {
	return m.Enabled && m.Password != ""
}

// Settings is the process-wide configuration record. Exactly one exists.
type Settings struct {
	TicketVisibility        bool
	TicketSelfAssignment    bool
	AssetVisibility         bool
	CanModifyAssignedAssets bool
	CanModifyAllAssets      bool

	NotifyTicketCreated  bool
	NotifyStatusChanged  bool
	NotifyNewMessage     bool
	NotifyTicketAssigned bool
	NotifyTicketResolved bool
	NotifyApproachingSLA bool
	NotifySLABreach      bool

	Mail MailSettings

	UpdatedAt time.Time
}

// DefaultSettings returns the record created on first access.
func DefaultSettings() Settings {
	return Settings{
		CanModifyAssignedAssets: true,
		NotifyTicketCreated:     true,
		NotifyStatusChanged:     true,
		NotifyNewMessage:        true,
		NotifyTicketAssigned:    true,
		NotifyTicketResolved:    true,
		NotifyApproachingSLA:    true,
		NotifySLABreach:         true,
		Mail:                    MailSettings{UseTLS: true},
	}
}

// WantsNotification reports the preference for kind. Kinds without a
// preference field default to sending.
func (s Settings) WantsNotification(kind NotificationKind) bool {
	prefs := map[NotificationKind]bool{
		NotifyTicketCreated:  s.NotifyTicketCreated,
		NotifyStatusChanged:  s.NotifyStatusChanged,
		NotifyNewMessage:     s.NotifyNewMessage,
		NotifyTicketAssigned: s.NotifyTicketAssigned,
		NotifyTicketResolved: s.NotifyTicketResolved,
		NotifyApproachingSLA: s.NotifyApproachingSLA,
		NotifySLABreach:      s.NotifySLABreach,
	}
	enabled, ok := prefs[kind]
	if !ok {
		return true
	}
	return enabled
}

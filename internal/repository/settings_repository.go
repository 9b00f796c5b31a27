package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// SettingsRepository stores the single Settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	// CreateIfAbsent inserts defaults unless a record exists and returns
	// whichever record is stored afterwards.
	CreateIfAbsent(ctx context.Context, defaults domain.Settings) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository instantiates repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	const query = `
        SELECT ticket_visibility, ticket_self_assignment, asset_visibility, can_modify_assigned_assets,
               can_modify_all_assets, notify_ticket_created, notify_status_changed, notify_new_message,
               notify_ticket_assigned, notify_ticket_resolved, notify_approaching_sla, notify_sla_breach,
               smtp_enabled, smtp_username, smtp_password, smtp_host, smtp_port, smtp_use_tls, smtp_from_email,
               updated_at
        FROM settings WHERE id=1`
	var s domain.Settings
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TicketVisibility,
		&s.TicketSelfAssignment,
		&s.AssetVisibility,
		&s.CanModifyAssignedAssets,
		&s.CanModifyAllAssets,
		&s.NotifyTicketCreated,
		&s.NotifyStatusChanged,
		&s.NotifyNewMessage,
		&s.NotifyTicketAssigned,
		&s.NotifyTicketResolved,
		&s.NotifyApproachingSLA,
		&s.NotifySLABreach,
		&s.Mail.Enabled,
		&s.Mail.Username,
		&s.Mail.Password,
		&s.Mail.Host,
		&s.Mail.Port,
		&s.Mail.UseTLS,
		&s.Mail.FromEmail,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *settingsRepository) CreateIfAbsent(ctx context.Context, defaults domain.Settings) (*domain.Settings, error) {
	query := `INSERT INTO settings (id, ` + settingsColumns + `) VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, query, settingsArgs(&defaults)...); err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	const query = `
        UPDATE settings SET ticket_visibility=$1, ticket_self_assignment=$2, asset_visibility=$3,
            can_modify_assigned_assets=$4, can_modify_all_assets=$5, notify_ticket_created=$6,
            notify_status_changed=$7, notify_new_message=$8, notify_ticket_assigned=$9, notify_ticket_resolved=$10,
            notify_approaching_sla=$11, notify_sla_breach=$12, smtp_enabled=$13, smtp_username=$14,
            smtp_password=$15, smtp_host=$16, smtp_port=$17, smtp_use_tls=$18, smtp_from_email=$19,
            updated_at=NOW()
        WHERE id=1
        RETURNING updated_at`
	return translate(r.pool.QueryRow(ctx, query, settingsArgs(settings)...).Scan(&settings.UpdatedAt))
}

const settingsColumns = `ticket_visibility, ticket_self_assignment, asset_visibility, can_modify_assigned_assets,
        can_modify_all_assets, notify_ticket_created, notify_status_changed, notify_new_message, notify_ticket_assigned,
        notify_ticket_resolved, notify_approaching_sla, notify_sla_breach, smtp_enabled, smtp_username, smtp_password,
        smtp_host, smtp_port, smtp_use_tls, smtp_from_email`

func settingsArgs(s *domain.Settings) []any {
	return []any{
		s.TicketVisibility,
		s.TicketSelfAssignment,
		s.AssetVisibility,
		s.CanModifyAssignedAssets,
		s.CanModifyAllAssets,
		s.NotifyTicketCreated,
		s.NotifyStatusChanged,
		s.NotifyNewMessage,
		s.NotifyTicketAssigned,
		s.NotifyTicketResolved,
		s.NotifyApproachingSLA,
		s.NotifySLABreach,
		s.Mail.Enabled,
		s.Mail.Username,
		s.Mail.Password,
		s.Mail.Host,
		s.Mail.Port,
		s.Mail.UseTLS,
		s.Mail.FromEmail,
	}
}

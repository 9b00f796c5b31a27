package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/mail"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/ratelimit"
	"github.com/campus-it/helpdesk/internal/repository/memory"
	"github.com/campus-it/helpdesk/internal/storage"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, _ domain.MailSettings, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

func (f *fakeSender) last(t *testing.T) mail.Message {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs, "no mail sent")
	return msgs[len(msgs)-1]
}

type testEnv struct {
	store      *memory.Store
	sender     *fakeSender
	metrics    *observability.Metrics
	limiter    *ratelimit.MemoryLimiter
	dispatcher events.Dispatcher
	files      storage.AttachmentStore

	settings      *SettingsService
	tickets       *TicketService
	assets        *AssetService
	assignments   *AssignmentService
	access        *AccessService
	notifications *NotificationService
	staff         *StaffService
	auth          *AuthService

	manager *domain.StaffMember
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	sender := &fakeSender{}
	metrics := observability.NewMetrics()
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxFailures: 3, Window: time.Minute})

	files, err := storage.NewDiskStore(t.TempDir(), 1024)
	require.NoError(t, err)
	renderer, err := mail.NewRenderer("https://help.example.edu")
	require.NoError(t, err)

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}}

	settings := NewSettingsService(SettingsDependencies{SettingsRepo: store.Settings()})
	assets := NewAssetService(AssetDependencies{
		AssetRepo:  store.Assets(),
		TicketRepo: store.Tickets(),
		Settings:   settings,
	})
	env := &testEnv{
		store:      store,
		sender:     sender,
		metrics:    metrics,
		limiter:    limiter,
		dispatcher: dispatcher,
		files:      files,
		settings:   settings,
		assets:     assets,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:     store.Tickets(),
			SequenceRepo:   store.Sequences(),
			MessageRepo:    store.Messages(),
			AttachmentRepo: store.Attachments(),
			Files:          files,
			Settings:       settings,
			Assets:         assets,
			Dispatcher:     dispatcher,
			Metrics:        metrics,
			Submission:     config.SubmissionConfig{EmailDomain: "etsu.edu", MaxAttachmentBytes: 1024},
			Now:            func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) },
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			TicketRepo: store.Tickets(),
			StaffRepo:  store.Staff(),
			Settings:   settings,
			Dispatcher: dispatcher,
		}),
		access: NewAccessService(AccessDependencies{
			TicketRepo:     store.Tickets(),
			MessageRepo:    store.Messages(),
			AttachmentRepo: store.Attachments(),
			Files:          files,
			Limiter:        limiter,
			Dispatcher:     dispatcher,
			Metrics:        metrics,
		}),
		notifications: NewNotificationService(NotificationDependencies{
			Dispatcher: dispatcher,
			Settings:   settings,
			StaffRepo:  store.Staff(),
			Renderer:   renderer,
			Sender:     sender,
			Metrics:    metrics,
			Config:     config.NotificationConfig{SendTimeoutSeconds: 1},
		}),
		staff: NewStaffService(StaffDependencies{
			StaffRepo:         store.Staff(),
			SystemManagerRepo: store.SystemManagers(),
			Settings:          settings,
			BcryptCost:        4,
		}),
		auth: NewAuthService(cfg, AuthDependencies{StaffRepo: store.Staff()}),
	}
	env.notifications.RegisterHandlers()

	env.manager, err = env.staff.RegisterSystemManager(context.Background(), SystemManagerInput{
		StaffInput: StaffInput{FirstName: "Grace", LastName: "Hopper", Email: "hopper@etsu.edu", Password: "manager-pass"},
		JobTitle:   "IT Director",
	})
	require.NoError(t, err)
	return env
}

func (e *testEnv) technician(t *testing.T, first, email string) *domain.StaffMember {
	t.Helper()
	tech, err := e.staff.RegisterTechnician(context.Background(), StaffInput{
		FirstName: first, LastName: "Tech", Email: email, Password: "technician-pass",
	})
	require.NoError(t, err)
	return tech
}

func (e *testEnv) updateSettings(t *testing.T, mutate func(*domain.Settings)) {
	t.Helper()
	_, err := e.settings.Update(context.Background(), e.manager, mutate)
	require.NoError(t, err)
}

func (e *testEnv) enableMail(t *testing.T) {
	t.Helper()
	e.updateSettings(t, func(s *domain.Settings) {
		s.Mail = domain.MailSettings{Enabled: true, Username: "helpdesk", Password: "secret", Host: "smtp.example.edu", Port: 587, UseTLS: true}
	})
}

func validSubmission() SubmitInput {
	return SubmitInput{
		Name:        "Ada Lovelace",
		Email:       "lovelace@etsu.edu",
		Title:       "Printer offline",
		Description: "The lab printer shows an error.",
		Type:        domain.TicketTypeIncident,
		SubType:     domain.SubTypePrinter,
		Item:        "error",
	}
}

func (e *testEnv) submit(t *testing.T, input SubmitInput) *domain.Ticket {
	t.Helper()
	ticket, err := e.tickets.Submit(context.Background(), input)
	require.NoError(t, err)
	return ticket
}

func credentialsFor(ticket *domain.Ticket) Credentials {
	return Credentials{Email: ticket.RequestorEmail, TicketNumber: ticket.TicketNumber, AccessCode: ticket.AccessCode}
}

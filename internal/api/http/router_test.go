package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/campus-it/helpdesk/internal/api/http"
	"github.com/campus-it/helpdesk/internal/api/http/handlers"
	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/mail"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/persistence"
	"github.com/campus-it/helpdesk/internal/ratelimit"
	"github.com/campus-it/helpdesk/internal/repository/memory"
	"github.com/campus-it/helpdesk/internal/service"
	"github.com/campus-it/helpdesk/internal/storage"
)

type noopSender struct{}

func (noopSender) Send(context.Context, domain.MailSettings, mail.Message) error { return nil }

type testServer struct {
	app   *fiber.App
	staff *service.StaffService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	files, err := storage.NewDiskStore(t.TempDir(), 1024)
	require.NoError(t, err)
	renderer, err := mail.NewRenderer("https://help.example.edu")
	require.NoError(t, err)

	settings := service.NewSettingsService(service.SettingsDependencies{SettingsRepo: store.Settings()})
	assets := service.NewAssetService(service.AssetDependencies{
		AssetRepo:  store.Assets(),
		TicketRepo: store.Tickets(),
		Settings:   settings,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
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
		Now:            func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC) },
	})
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: store.Tickets(),
		StaffRepo:  store.Staff(),
		Settings:   settings,
		Dispatcher: dispatcher,
	})
	access := service.NewAccessService(service.AccessDependencies{
		TicketRepo:     store.Tickets(),
		MessageRepo:    store.Messages(),
		AttachmentRepo: store.Attachments(),
		Files:          files,
		Limiter:        ratelimit.NewMemoryLimiter(ratelimit.Config{MaxFailures: 5, Window: time.Minute}),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
	})
	staff := service.NewStaffService(service.StaffDependencies{
		StaffRepo:         store.Staff(),
		SystemManagerRepo: store.SystemManagers(),
		Settings:          settings,
		BcryptCost:        4,
	})
	authService := service.NewAuthService(config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-test", AccessTokenTTLMinutes: 5, BcryptCost: 4},
	}, service.AuthDependencies{StaffRepo: store.Staff()})
	service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Settings:   settings,
		StaffRepo:  store.Staff(),
		Renderer:   renderer,
		Sender:     noopSender{},
		Metrics:    metrics,
	}).RegisterHandlers()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Tickets:        handlers.NewTicketsHandler(tickets, access),
		StaffTickets:   handlers.NewStaffTicketsHandler(tickets, assignments, assets),
		Assets:         handlers.NewAssetsHandler(assets),
		Settings:       handlers.NewSettingsHandler(settings),
		Staff:          handlers.NewStaffHandler(authService, staff),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Staff()),
		Metrics:        adaptor.HTTPHandler(metrics.Handler()),
	})
	return &testServer{app: app, staff: staff}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/auth/staff/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, body)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func submission() map[string]string {
	return map[string]string{
		"name":        "Ada Lovelace",
		"email":       "lovelace@etsu.edu",
		"title":       "Printer offline",
		"description": "The lab printer shows an error.",
		"type":        "INC",
		"sub_type":    "PRT",
		"item":        "error",
	}
}

func TestSubmitAndAccessTicket(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/tickets", "", submission())
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-1001", data["ticket_number"])
	code := data["access_code"].(string)
	require.NotEmpty(t, code)

	status, body = srv.do(t, fiber.MethodPost, "/tickets/access", "", map[string]string{
		"email": "lovelace@etsu.edu", "ticket_number": "2025-1001", "access_code": code,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	view := body["data"].(map[string]any)
	assert.Equal(t, "2025-1001", view["ticket_number"])
	assert.Equal(t, "Printer", view["category"])
	assert.Equal(t, "Printer Errors", view["sub_category"])
	assert.NotContains(t, view, "access_code")

	status, body = srv.do(t, fiber.MethodPost, "/tickets/2025-1001/messages", "", map[string]string{
		"email": "lovelace@etsu.edu", "access_code": code, "content": "Still broken.",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
}

func TestAccessFailuresLookIdentical(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, fiber.MethodPost, "/tickets", "", submission())
	require.Equal(t, fiber.StatusCreated, status, body)
	code := body["data"].(map[string]any)["access_code"].(string)

	attempts := []map[string]string{
		{"email": "lovelace@etsu.edu", "ticket_number": "2025-1001", "access_code": "WRONG"},
		{"email": "other@etsu.edu", "ticket_number": "2025-1001", "access_code": code},
		{"email": "lovelace@etsu.edu", "ticket_number": "2025-9999", "access_code": code},
	}
	var messages []any
	for _, attempt := range attempts {
		status, body := srv.do(t, fiber.MethodPost, "/tickets/access", "", attempt)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body))
		messages = append(messages, body["error"].(map[string]any)["message"])
	}
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[0], messages[2])
}

func TestSubmitRejectsForeignDomain(t *testing.T) {
	srv := newTestServer(t)
	input := submission()
	input["email"] = "ada@gmail.com"

	status, body := srv.do(t, fiber.MethodPost, "/tickets", "", input)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestStaffRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/staff/tickets", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = srv.do(t, fiber.MethodGet, "/staff/tickets", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSettingsUpdateIsManagerOnly(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.staff.RegisterSystemManager(ctx, service.SystemManagerInput{
		StaffInput: service.StaffInput{FirstName: "Grace", LastName: "Hopper", Email: "hopper@etsu.edu", Password: "manager-pass"},
		JobTitle:   "IT Director",
	})
	require.NoError(t, err)
	_, err = srv.staff.RegisterTechnician(ctx, service.StaffInput{
		FirstName: "Alan", LastName: "Turing", Email: "turing@etsu.edu", Password: "technician-pass",
	})
	require.NoError(t, err)

	techToken := srv.login(t, "turing@etsu.edu", "technician-pass")
	status, body := srv.do(t, fiber.MethodGet, "/staff/tickets", techToken, nil)
	require.Equal(t, fiber.StatusOK, status, body)

	update := map[string]any{"ticket_self_assignment": true}
	status, body = srv.do(t, fiber.MethodPut, "/staff/settings", techToken, update)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	managerToken := srv.login(t, "hopper@etsu.edu", "manager-pass")
	status, body = srv.do(t, fiber.MethodPut, "/staff/settings", managerToken, update)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["data"].(map[string]any)["ticket_self_assignment"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.staff.RegisterTechnician(context.Background(), service.StaffInput{
		FirstName: "Alan", LastName: "Turing", Email: "turing@etsu.edu", Password: "technician-pass",
	})
	require.NoError(t, err)

	status, body := srv.do(t, fiber.MethodPost, "/auth/staff/login", "", map[string]string{"email": "turing@etsu.edu", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, status, body)

	srv.do(t, fiber.MethodPost, "/tickets", "", submission())

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "helpdesk_tickets_created_total 1")
}

func TestMeIncludesManagerProfile(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.staff.RegisterSystemManager(context.Background(), service.SystemManagerInput{
		StaffInput:  service.StaffInput{FirstName: "Grace", LastName: "Hopper", Email: "hopper@etsu.edu", Password: "manager-pass"},
		JobTitle:    "IT Director",
		Departments: []string{"Computing, Physics"},
	})
	require.NoError(t, err)
	token := srv.login(t, "hopper@etsu.edu", "manager-pass")

	status, body := srv.do(t, fiber.MethodGet, "/staff/me", token, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	me := body["data"].(map[string]any)
	assert.Equal(t, "SYSTEM_MANAGER", me["role"])
	profile := me["profile"].(map[string]any)
	assert.Equal(t, "IT Director", profile["job_title"])
	assert.Equal(t, []any{"Computing", "Physics"}, profile["departments"])

	status, body = srv.do(t, fiber.MethodPost, "/staff/system-managers", token, map[string]any{
		"first_name": "Ada", "last_name": "Byron", "email": "byron@etsu.edu", "password": "manager-pass-2",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "SYSTEM_MANAGER", body["data"].(map[string]any)["role"])
}

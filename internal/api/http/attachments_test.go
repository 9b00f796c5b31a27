package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/service"
)

func (s *testServer) submitWithFile(t *testing.T, fileName, content string) string {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for key, value := range submission() {
		require.NoError(t, form.WriteField(key, value))
	}
	part, err := form.CreateFormFile("attachments", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/tickets", &buf)
	req.Header.Set(fiber.HeaderContentType, form.FormDataContentType())
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["data"].(map[string]any)["access_code"].(string)
}

func (s *testServer) download(t *testing.T, method, path, token string, body any) (int, string, string) {
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
	return resp.StatusCode, resp.Header.Get(fiber.HeaderContentDisposition), string(raw)
}

func TestAttachmentDownload(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	code := srv.submitWithFile(t, "error.txt", "paper jam in tray 2")
	creds := map[string]string{"email": "lovelace@etsu.edu", "ticket_number": "2025-1001", "access_code": code}

	status, body := srv.do(t, fiber.MethodPost, "/tickets/access", "", creds)
	require.Equal(t, fiber.StatusOK, status, body)
	files := body["data"].(map[string]any)["attachments"].([]any)
	require.Len(t, files, 1)
	id := files[0].(map[string]any)["id"].(string)
	path := "/tickets/2025-1001/attachments/" + id

	status, disposition, content := srv.download(t, fiber.MethodPost, path, "", creds)
	require.Equal(t, fiber.StatusOK, status, content)
	assert.Equal(t, "paper jam in tray 2", content)
	assert.Contains(t, disposition, "error.txt")

	wrong := map[string]string{"email": "lovelace@etsu.edu", "access_code": "WRONG1"}
	status, body = srv.do(t, fiber.MethodPost, path, "", wrong)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = srv.do(t, fiber.MethodPost, "/tickets/2025-1001/attachments/not-an-id", "", creds)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	_, err := srv.staff.RegisterSystemManager(ctx, service.SystemManagerInput{
		StaffInput: service.StaffInput{FirstName: "Grace", LastName: "Hopper", Email: "hopper@etsu.edu", Password: "manager-pass"},
		JobTitle:   "IT Director",
	})
	require.NoError(t, err)
	_, err = srv.staff.RegisterTechnician(ctx, service.StaffInput{
		FirstName: "Alan", LastName: "Turing", Email: "turing@etsu.edu", Password: "technician-pass",
	})
	require.NoError(t, err)

	staffPath := "/staff/tickets/2025-1001/attachments/" + id
	status, _, content = srv.download(t, fiber.MethodGet, staffPath, srv.login(t, "hopper@etsu.edu", "manager-pass"), nil)
	require.Equal(t, fiber.StatusOK, status, content)
	assert.Equal(t, "paper jam in tray 2", content)

	status, body = srv.do(t, fiber.MethodGet, staffPath, srv.login(t, "turing@etsu.edu", "technician-pass"), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = srv.do(t, fiber.MethodGet, staffPath, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

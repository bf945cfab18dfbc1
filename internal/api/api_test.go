package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/database"
	"github.com/factchecker/factlens/internal/models"
)

const adminToken = "admin-secret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeVerifier struct {
	mu     sync.Mutex
	texts  []string
	images []models.Image
	query  string
}

func (f *fakeVerifier) VerifyText(_ context.Context, text string) *models.TextReport {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return &models.TextReport{
		ID: "report-1",
		Claims: []models.ClaimVerdict{{
			Claim:            text,
			Verdict:          models.VerdictSupported,
			CredibilityScore: 0.5,
			Evidence:         []models.StanceResult{},
		}},
	}
}

func (f *fakeVerifier) VerifyImage(_ context.Context, img models.Image, query string) *models.ImageReport {
	f.mu.Lock()
	f.images = append(f.images, img)
	f.query = query
	f.mu.Unlock()
	return &models.ImageReport{
		ID:        "image-1",
		UserQuery: query,
		FinalVerdict: models.ImageVerdict{
			EventTruthfulness: models.EventReal,
			ImageContext:      models.ContextAccurate,
			FinalVerdict:      models.FinalSupported,
		},
	}
}

type testServer struct {
	handler  http.Handler
	store    database.Store
	verifier *fakeVerifier
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Server.AdminToken = adminToken
	if mutate != nil {
		mutate(cfg)
	}

	v := &fakeVerifier{}
	adapters := map[string]string{"llm": "ok", "search": "ok"}
	return &testServer{handler: NewRouter(cfg, v, store, adapters), store: store, verifier: v}
}

func (s *testServer) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createKey(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/admin/keys", adminToken, bytes.NewBufferString(`{"name":"newsroom"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.Key, "fl_"))
	return resp.Key
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func imageForm(t *testing.T, query string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if query != "" {
		require.NoError(t, w.WriteField("query", query))
	}
	if data != nil {
		part, err := w.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/health", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthCheckDegraded(t *testing.T) {
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer store.Close()

	h := NewRouter(config.DefaultConfig(), &fakeVerifier{}, store, map[string]string{"llm": "ok", "ocr": "OCR.space API key is required"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestAdminRoutes(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		s := newTestServer(t, func(c *config.Config) { c.Server.AdminToken = "" })
		rec := s.do(t, http.MethodGet, "/api/v1/admin/keys", "anything", nil, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := s.do(t, http.MethodGet, "/api/v1/admin/keys", "nope", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("key lifecycle", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.createKey(t)

		rec := s.do(t, http.MethodGet, "/api/v1/admin/keys", adminToken, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list struct {
			Keys []models.APIKey `json:"keys"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Keys, 1)
		assert.Equal(t, "newsroom", list.Keys[0].Name)
		assert.NotContains(t, rec.Body.String(), "key_hash")

		rec = s.do(t, http.MethodDelete, "/api/v1/admin/keys/"+list.Keys[0].ID, adminToken, nil, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, http.MethodDelete, "/api/v1/admin/keys/"+list.Keys[0].ID, adminToken, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVerifyTextEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createKey(t)

	rec := s.do(t, http.MethodPost, "/api/v1/verify/text", "", jsonBody(t, models.VerifyTextRequest{Text: "x"}), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/verify/text", "fl_wrong", jsonBody(t, models.VerifyTextRequest{Text: "x"}), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/verify/text", key, jsonBody(t, models.VerifyTextRequest{Text: "  "}), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/verify/text", key, bytes.NewBufferString("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	claim := "The Eiffel Tower is located in Paris, France."
	rec = s.do(t, http.MethodPost, "/api/v1/verify/text", key, jsonBody(t, models.VerifyTextRequest{Text: claim}), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.TextReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Claims, 1)
	assert.Equal(t, models.VerdictSupported, report.Claims[0].Verdict)
	assert.Equal(t, []string{claim}, s.verifier.texts)
}

func TestVerifyImageEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createKey(t)

	body, ct := imageForm(t, "", pngHeader)
	rec := s.do(t, http.MethodPost, "/api/v1/verify/image", key, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = imageForm(t, "Is this real?", nil)
	rec = s.do(t, http.MethodPost, "/api/v1/verify/image", key, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = imageForm(t, "Is this real?", []byte("just some text, not an image"))
	rec = s.do(t, http.MethodPost, "/api/v1/verify/image", key, body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = imageForm(t, "Is this real?", pngHeader)
	rec = s.do(t, http.MethodPost, "/api/v1/verify/image", key, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.ImageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, models.FinalSupported, report.FinalVerdict.FinalVerdict)
	assert.Equal(t, "Is this real?", s.verifier.query)
	require.Len(t, s.verifier.images, 1)
	assert.Equal(t, "image/png", s.verifier.images[0].ContentType)
	assert.Equal(t, "photo.png", s.verifier.images[0].Filename)
}

func TestVerifyImageTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadSize = 1024 })
	key := s.createKey(t)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 4096)...)
	body, ct := imageForm(t, "Is this real?", big)
	rec := s.do(t, http.MethodPost, "/api/v1/verify/image", key, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, s.verifier.images)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RateLimits.RequestsPerMinute = 1 })
	key := s.createKey(t)

	rec := s.do(t, http.MethodPost, "/api/v1/verify/text", key, jsonBody(t, models.VerifyTextRequest{Text: "a"}), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/verify/text", key, jsonBody(t, models.VerifyTextRequest{Text: "b"}), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuditTrail(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createKey(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/text", jsonBody(t, models.VerifyTextRequest{Text: "a"}))
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("X-Request-ID", "req-42")
	s.handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Eventually(t, func() bool {
		logs, err := s.store.GetAuditLogs(context.Background(), 10, 0)
		return err == nil && len(logs) == 1 && logs[0].RequestID == "req-42" && logs[0].ResponseCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	rec := s.do(t, http.MethodGet, "/api/v1/audit?limit=5", key, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":5`)
}

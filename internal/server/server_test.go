package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nietladen/internal/accounts"
	"nietladen/internal/auth"
	"nietladen/internal/catalog"
	"nietladen/internal/config"
	"nietladen/internal/email"
	"nietladen/internal/guides"
	"nietladen/internal/models"
	"nietladen/internal/store/memstore"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

type testServer struct {
	srv     *Server
	modelID int64
	cookies []*http.Cookie
}

func testConfig() *config.Config {
	return &config.Config{
		Env:            "development",
		BaseURL:        "http://localhost:3000",
		SessionSecret:  "test-secret-that-is-long-enough-for-production",
		SessionTTL:     time.Hour,
		TokenTTL:       time.Hour,
		RateLimitMax:   100,
		RateLimitEvery: time.Minute,
		MaxUploadMB:    1,
		SiteTitle:      "Niet Laden",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	st := memstore.New()
	notifier, err := email.NewNotifier(cfg, logger)
	require.NoError(t, err)

	acc := accounts.New(st, logger)
	_, _, err = acc.Ensure(ctx, accounts.CreateInput{
		Email:    "admin@example.com",
		Name:     "Admin",
		Password: "secret123",
		Roles:    models.AllRoles,
	})
	require.NoError(t, err)

	cat := catalog.New(st, logger)
	manager := models.Caller{UserID: 1, Roles: []models.Role{models.RoleCatalogManager}}
	brand, err := cat.CreateBrand(ctx, manager, catalog.BrandInput{Name: "Tesla"})
	require.NoError(t, err)
	model, err := cat.CreateModel(ctx, manager, catalog.ModelInput{BrandID: brand.ID, Name: "Model 3"})
	require.NoError(t, err)

	srv := New(cfg, logger)
	t.Cleanup(func() { _ = srv.Shutdown() })
	require.NoError(t, srv.RegisterRoutes(ctx, Deps{
		Catalog:  cat,
		Guides:   guides.New(st, notifier, logger),
		Accounts: acc,
		Tokens:   auth.NewTokenIssuer(cfg.SessionSecret, cfg.TokenTTL),
	}))

	return &testServer{srv: srv, modelID: model.ID}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header http.Header) (*http.Response, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}

	resp, err := ts.srv.App.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp, env := ts.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "admin@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	ts.cookies = resp.Cookies()
	require.NotEmpty(t, ts.cookies)
}

func (ts *testServer) submit(t *testing.T) int64 {
	t.Helper()
	resp, env := ts.do(t, http.MethodPost, "/api/submit-guide", map[string]any{
		"submitterName":  "Jan",
		"submitterEmail": "jan@example.com",
		"modelIds":       []int64{ts.modelID},
		"steps":          []map[string]any{{"stepNumber": 1, "description": "Open the charging menu"}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)

	var out struct {
		GuideID int64 `json:"guideId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotZero(t, out.GuideID)
	return out.GuideID
}

func TestPublicBrands(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp, env := ts.do(t, http.MethodGet, "/api/brands", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "ok", env.Status)

	var brands []models.Brand
	require.NoError(t, json.Unmarshal(env.Data, &brands))
	require.Len(t, brands, 1)
	assert.Equal(t, "tesla", brands[0].Slug)

	resp, env = ts.do(t, http.MethodGet, "/api/brands/tesla/models", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.VehicleModel
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	resp, env = ts.do(t, http.MethodGet, "/api/brands/unknown/models", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
}

func TestModerationRequiresRole(t *testing.T) {
	ts := newTestServer(t, testConfig())

	for _, path := range []string{"/api/guides", "/api/admin/guides", "/api/admin/brands", "/api/admin/users"} {
		resp, env := ts.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "unauthorized", env.Error, path)
	}

	resp, _ := ts.do(t, http.MethodPost, "/api/admin/change-password", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitApproveFlow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	guideID := ts.submit(t)

	// Not public while pending
	resp, _ := ts.do(t, http.MethodGet, fmt.Sprintf("/api/guides/%d/public", guideID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts.login(t)

	resp, env := ts.do(t, http.MethodGet, "/api/guides", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var pending []models.GuideSummary
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, []string{"Model 3 (Tesla)"}, pending[0].ModelNames)

	resp, env = ts.do(t, http.MethodPost, fmt.Sprintf("/api/guides/%d/approve", guideID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	ts.cookies = nil
	resp, env = ts.do(t, http.MethodGet, fmt.Sprintf("/api/guides/%d/public", guideID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var details map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Nil(t, details["submittedByEmail"])

	resp, env = ts.do(t, http.MethodGet, "/api/brands/tesla/models/model-3/guides", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var forModel struct {
		Guides []models.GuideDetails `json:"guides"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &forModel))
	assert.Len(t, forModel.Guides, 1)
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp, env := ts.do(t, http.MethodPost, "/api/submit-guide", map[string]any{
		"submitterName": "Jan",
		"modelIds":      []int64{ts.modelID},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-guide", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := ts.srv.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestFeedback(t *testing.T) {
	ts := newTestServer(t, testConfig())
	guideID := ts.submit(t)

	resp, env := ts.do(t, http.MethodPost, "/api/feedback", map[string]any{"guideId": guideID, "isHelpful": true}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	resp, _ = ts.do(t, http.MethodPost, "/api/feedback", map[string]any{"guideId": 999999, "isHelpful": false}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/feedback", map[string]any{"guideId": guideID}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBearerTokenAccess(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp, env := ts.do(t, http.MethodPost, "/auth/token", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = ts.do(t, http.MethodPost, "/auth/token", map[string]string{
		"email": "admin@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))

	header := http.Header{"Authorization": []string{"Bearer " + tok.Token}}
	resp, env = ts.do(t, http.MethodGet, "/api/admin/users", nil, header)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var users []models.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 1)

	resp, env = ts.do(t, http.MethodPost, "/api/admin/users", map[string]any{
		"email": "mod@example.com", "name": "Mod", "password": "secret1", "roles": []string{"MODERATOR"},
	}, header)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
}

func TestCatalogAdmin(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.login(t)

	resp, env := ts.do(t, http.MethodPost, "/api/admin/brands/import", map[string]string{
		"data": "Kia\tEV6\nKia\tNiro\nTesla\tModel 3\n",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var res catalog.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.ImportedBrands)
	assert.Equal(t, 2, res.ImportedModels)

	resp, env = ts.do(t, http.MethodPost, "/api/admin/brands", map[string]string{"name": "Tesla"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, env.Error)

	resp, _ = ts.do(t, http.MethodPut, "/api/admin/brands/abc", map[string]string{"name": "X"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())

	_, env := ts.do(t, http.MethodGet, "/auth/session", nil, nil)
	assert.JSONEq(t, `{"user":null}`, string(env.Data))

	ts.login(t)
	_, env = ts.do(t, http.MethodGet, "/auth/session", nil, nil)
	var sess struct {
		User *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin@example.com", sess.User.Email)

	resp, _ := ts.do(t, http.MethodPost, "/api/admin/change-password", map[string]string{
		"currentPassword": "secret123", "newPassword": "newsecret",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadDisabled(t *testing.T) {
	ts := newTestServer(t, testConfig())

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "step.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := ts.srv.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp, env := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", env.Status)

	resp, _ = ts.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = ts.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", env.Status)

	resp, _ = ts.do(t, http.MethodGet, "/auth/oidc/login", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 2
	ts := newTestServer(t, cfg)

	body := map[string]any{"guideId": 1, "isHelpful": true}
	for range 2 {
		resp, _ := ts.do(t, http.MethodPost, "/api/feedback", body, nil)
		assert.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode)
	}
	resp, env := ts.do(t, http.MethodPost, "/api/feedback", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
}

// TestRedisBackedSession verifies that the encryptcookie + session stack
// round-trips a login when sessions live in Redis.
func TestRedisBackedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	ts := newTestServer(t, cfg)

	ts.login(t)
	assert.NotEmpty(t, mr.Keys(), "session should be stored in redis")

	resp, env := ts.do(t, http.MethodGet, "/api/guides", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	// Replaying the cookie a second time must keep working
	resp, env = ts.do(t, http.MethodGet, "/api/admin/users", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
}

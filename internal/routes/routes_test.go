package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandbridge/portal/internal/config"
	"github.com/brandbridge/portal/internal/identity"
	"github.com/brandbridge/portal/internal/logging"
	"github.com/brandbridge/portal/internal/routepath"
)

func testConfig() config.Config {
	return config.Config{
		AppName:           "BrandBridge",
		AppEnv:            "development",
		JWTSecret:         "test-secret",
		JWTIssuer:         "brandbridge",
		TokenTTL:          time.Hour,
		SessionCookie:     "bb_session",
		SignOutOrigin:     "https://brandbridge.example",
		StreamHeartbeat:   time.Second,
		DispatchPerMinute: 10,
	}
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	wiring, err := Setup(app, Deps{Cfg: testConfig(), Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(wiring.Notifications.Close)
	return app
}

func signIn(t *testing.T, app *fiber.App, role string) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/dev-login/"+role, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "bb_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func request(t *testing.T, app *fiber.App, method, path string, cookie *http.Cookie, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSetupRequiresBackendsOutsideDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	_, err := Setup(fiber.New(), Deps{Cfg: cfg})
	assert.Error(t, err)
}

func TestHealthReportsMemoryBackends(t *testing.T) {
	app := setupApp(t)
	resp := request(t, app, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignedOutVisitorIsSentToLogin(t *testing.T) {
	app := setupApp(t)
	for _, path := range []string{"/", "/admin", "/dashboard/campaigns", "/influencer/setup"} {
		resp := request(t, app, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, routepath.Login, resp.Header.Get(fiber.HeaderLocation), path)
	}
	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, routepath.Login, nil, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, request(t, app, http.MethodGet, "/api/v1/notifications", nil, "").StatusCode)
}

func TestInfluencerWithIncompleteProfileLandsOnSetup(t *testing.T) {
	app := setupApp(t)
	cookie := signIn(t, app, "influencer")

	resp := request(t, app, http.MethodGet, "/influencer/campaigns", cookie, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routepath.ProfileSetup, resp.Header.Get(fiber.HeaderLocation))

	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, routepath.ProfileSetup, cookie, "").StatusCode)

	resp = request(t, app, http.MethodGet, routepath.Login, cookie, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routepath.DashboardHome, resp.Header.Get(fiber.HeaderLocation))
}

func TestAdminDispatchReachesRecipientFeed(t *testing.T) {
	app := setupApp(t)
	admin := signIn(t, app, "admin")
	brand := signIn(t, app, "brand")

	resp := request(t, app, http.MethodGet, "/api/v1/notifications", brand, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed struct {
		Items       []map[string]any `json:"items"`
		UnreadCount int              `json:"unread_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	assert.Equal(t, 1, feed.UnreadCount, "welcome notification")

	body := `{"user_id":"` + identity.DemoBrand.ID + `","role":"brand","type":"proposal","title":"New proposal","message":"An influencer applied"}`
	assert.Equal(t, http.StatusForbidden, request(t, app, http.MethodPost, "/api/v1/notifications", brand, body).StatusCode)
	assert.Equal(t, http.StatusCreated, request(t, app, http.MethodPost, "/api/v1/notifications", admin, body).StatusCode)

	resp = request(t, app, http.MethodPost, "/api/v1/notifications/read-all", brand, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	assert.Len(t, feed.Items, 2)
	assert.Zero(t, feed.UnreadCount)
}

func TestLogoutLeavesAppAndRevokesToken(t *testing.T) {
	app := setupApp(t)
	cookie := signIn(t, app, "brand")
	require.Equal(t, http.StatusOK, request(t, app, http.MethodGet, "/brand", cookie, "").StatusCode)

	resp := request(t, app, http.MethodPost, routepath.Logout, cookie, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://brandbridge.example", resp.Header.Get(fiber.HeaderLocation))

	resp = request(t, app, http.MethodGet, "/brand", cookie, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routepath.Login, resp.Header.Get(fiber.HeaderLocation))

	// A fresh sign-in works again.
	fresh := signIn(t, app, "brand")
	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, "/brand", fresh, "").StatusCode)
}

func TestDispatchReplayDoesNotUseQuota(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	cfg := testConfig()
	cfg.DispatchPerMinute = 1
	cfg.IdempotencyTTL = time.Hour
	app := fiber.New()
	wiring, err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(wiring.Notifications.Close)
	admin := signIn(t, app, "admin")

	send := func(key string) *http.Response {
		body := `{"user_id":"` + identity.DemoBrand.ID + `","role":"brand","type":"proposal","title":"New proposal","message":"An influencer applied"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", key)
		req.AddCookie(&http.Cookie{Name: admin.Name, Value: admin.Value})
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusCreated, send("dispatch-1").StatusCode)

	replayed := send("dispatch-1")
	assert.Equal(t, http.StatusCreated, replayed.StatusCode)
	assert.Equal(t, "true", replayed.Header.Get("Idempotent-Replay"))

	assert.Equal(t, http.StatusTooManyRequests, send("dispatch-2").StatusCode)

	// A rejected request is not remembered under its key.
	mr.FastForward(time.Minute + time.Second)
	resp := send("dispatch-2")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replay"))
}

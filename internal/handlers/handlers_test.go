package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/signverse/signverse-backend/internal/config"
	"github.com/signverse/signverse-backend/internal/handlers"
	"github.com/signverse/signverse-backend/internal/repository/memory"
	"github.com/signverse/signverse-backend/internal/routes"
	"github.com/signverse/signverse-backend/internal/services"
	"github.com/signverse/signverse-backend/internal/session"
	"github.com/signverse/signverse-backend/internal/signs"
	"github.com/signverse/signverse-backend/internal/translate"
)

const dictionary = `[
  {"gloss": "hello", "instances": [{"url": "https://example.com/hello.mp4", "source": "aslbrick", "signer_id": 1, "bbox": [0, 0, 10, 10], "fps": 25, "frame_start": 1, "frame_end": -1, "instance_id": 0, "video_id": "100", "split": "train"}]},
  {"gloss": "help", "instances": []}
]`

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tokens[to] = token
	return nil
}

func (m *captureMailer) token(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[email]
	require.True(t, ok, "no token mailed to %s", email)
	return tok
}

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	mailer *captureMailer
	ml     *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		AdminToken:  "admin-secret",
		AdminEmails: "Boss@x.com",
	}

	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/translate", "/api/translate/realtime":
			_, _ = w.Write([]byte(`{"status":"success","predicted_sign":"B","confidence":0.8}`))
		case "/api/model/info":
			_, _ = w.Write([]byte(`{"status":"success","model_info":{"classes":26}}`))
		case "/api/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ml.Close)

	store := memory.New()
	mailer := &captureMailer{tokens: make(map[string]string)}
	hasher := services.NewBcryptHasher(bcrypt.MinCost)
	sessions := session.NewIssuer("test-secret", 720*time.Hour)
	index, err := signs.Load(strings.NewReader(dictionary))
	require.NoError(t, err)
	mlClient := translate.NewClient(ml.URL, 2*time.Second)

	reg := services.NewRegistrationService(store, hasher, services.NewRandomTokenGenerator(32), mailer, sessions, 24*time.Hour)
	auth := services.NewAuthService(store, hasher, sessions)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	routes.Setup(app, routes.Deps{
		Config:    cfg,
		Sessions:  sessions,
		Users:     store.Users(),
		Auth:      handlers.NewAuthHandler(reg, auth, sessions, false),
		Health:    handlers.NewHealthHandler(store, mlClient, index),
		Signs:     handlers.NewSignHandler(index),
		Translate: handlers.NewTranslateHandler(mlClient),
		Admin:     handlers.NewAdminHandler(reg),
	})

	return &testServer{app: app, store: store, mailer: mailer, ml: ml}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", session.CookieName)
	return nil
}

func (s *testServer) registerAndVerify(t *testing.T, name, email, password string) *http.Cookie {
	t.Helper()
	return s.registerAndVerifyAs(t, name, email, password, "deaf")
}

func (s *testServer) registerAndVerifyAs(t *testing.T, name, email, password, role string) *http.Cookie {
	t.Helper()
	resp, _ := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": name, "email": email, "password": password, "role": role,
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/auth/verify-email/"+s.mailer.token(t, email), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return sessionCookie(t, resp)
}

func TestAnnRegistersVerifiesAndIsLoggedIn(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": "Ann", "email": "ann@x.com", "password": "secret1", "role": "deaf",
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ann@x.com", body["email"])
	assert.Equal(t, 1, s.store.PendingCount())
	assert.Equal(t, 0, s.store.UserCount())

	resp, body = s.do(t, http.MethodGet, "/api/auth/verify-email/"+s.mailer.token(t, "ann@x.com"), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully! You are now logged in.", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ann@x.com", user["email"])
	assert.Equal(t, "deaf", user["role"])

	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int((720 * time.Hour).Seconds()), cookie.MaxAge)

	resp, body = s.do(t, http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, user["_id"], body["_id"])
	assert.Equal(t, "Ann", body["fullName"])
	assert.Equal(t, true, body["isVerified"])
	assert.NotContains(t, body, "passwordHash")
	assert.Equal(t, 0, s.store.PendingCount())
}

func TestBoRegistersTwiceFirstTokenIsDead(t *testing.T) {
	s := newTestServer(t)
	reg := map[string]string{"fullName": "Bo", "email": "bo@x.com", "password": "pw1234", "role": "student"}

	resp, _ := s.do(t, http.MethodPost, "/api/auth/register", reg, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := s.mailer.token(t, "bo@x.com")

	resp, _ = s.do(t, http.MethodPost, "/api/auth/register", reg, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	second := s.mailer.token(t, "bo@x.com")

	resp, body := s.do(t, http.MethodGet, "/api/auth/verify-email/"+first, nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired verification token", body["message"])
	assert.Equal(t, false, body["success"])

	resp, _ = s.do(t, http.MethodGet, "/api/auth/verify-email/"+second, nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/auth/verify-email/"+second, nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "a token verifies once")
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "Ann", "ann@x.com", "secret1")

	resp, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": "Ann", "email": "ann@x.com", "password": "secret1", "role": "deaf",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", body["message"])

	resp, body = s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": "", "email": "nope", "password": "1", "role": "wizard",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	fields := body["errors"].(map[string]interface{})
	for _, f := range []string{"fullName", "email", "password", "role"} {
		assert.Contains(t, fields, f)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, body = s.send(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestRegisterMailFailure(t *testing.T) {
	s := newTestServer(t)
	s.mailer.err = assert.AnError

	resp, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": "Cy", "email": "cy@x.com", "password": "secret1", "role": "teacher",
	}, nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to send verification email. Please try again later.", body["message"])
	assert.Equal(t, 0, s.store.PendingCount())
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "Bo", "bo@x.com", "pw1234")

	resp, body := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "bo@x.com", "password": "pw1234"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bo@x.com", body["email"])
	cookie := sessionCookie(t, resp)
	assert.NotEmpty(t, cookie.Value)

	wrong, wrongBody := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "bo@x.com", "password": "nope123"}, nil)
	unknown, unknownBody := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "zed@x.com", "password": "pw1234"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, wrong.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, unknown.StatusCode)
	assert.Equal(t, "Invalid credentials", wrongBody["message"])
	assert.Equal(t, wrongBody, unknownBody)
}

func TestAuthenticateMessages(t *testing.T) {
	s := newTestServer(t)
	cookie := s.registerAndVerify(t, "Ann", "ann@x.com", "secret1")

	resp, body := s.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, no token", body["message"])

	resp, body = s.do(t, http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: session.CookieName, Value: "garbage.token.value"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, token failed", body["message"])

	forged, _, err := session.NewIssuer("other-secret", time.Hour).Issue(uuid.New())
	require.NoError(t, err)
	resp, body = s.do(t, http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: session.CookieName, Value: forged})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, token failed", body["message"])

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: uuid.New().String(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	resp, body = s.do(t, http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: session.CookieName, Value: noExp})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, token failed", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	resp, body = s.send(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ann@x.com", body["email"])
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	cookie := sessionCookie(t, resp)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestResendVerification(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": "ghost@x.com"}, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No pending registration found for this email", body["message"])

	resp, _ = s.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": ""}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName": "Di", "email": "di@x.com", "password": "secret1", "role": "deaf",
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	old := s.mailer.token(t, "di@x.com")

	resp, body = s.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": "di@x.com"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Verification email has been resent. Please check your inbox.", body["message"])
	fresh := s.mailer.token(t, "di@x.com")
	assert.NotEqual(t, old, fresh)

	resp, _ = s.do(t, http.MethodGet, "/api/auth/verify-email/"+fresh, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": "di@x.com"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "This email is already verified", body["message"])
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	cookie := s.registerAndVerify(t, "Ann", "ann@x.com", "secret1")
	auth := &http.Cookie{Name: cookie.Name, Value: cookie.Value}

	resp, body := s.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{"currentPassword": "secret1", "newPassword": "abc"}, auth)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "New password must be at least 6 characters", body["message"])

	resp, body = s.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{"currentPassword": "wrong12", "newPassword": "newpass1"}, auth)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Current password is incorrect", body["message"])

	resp, _ = s.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{"currentPassword": "secret1", "newPassword": "newpass1"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{"currentPassword": "secret1", "newPassword": "newpass1"}, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password changed successfully", body["message"])

	resp, _ = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "secret1"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "newpass1"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSignsEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/signs/search?q=Hello", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["found"])
	assert.Len(t, body["videos"], 1)

	resp, _ = s.do(t, http.MethodGet, "/api/signs/search?q=goodbye", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/signs/search", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/api/signs/has?word=HELP", nil, nil)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "HELP", body["word"])
	_, body = s.do(t, http.MethodGet, "/api/signs/has?word=nope", nil, nil)
	assert.Equal(t, false, body["found"])
	resp, _ = s.do(t, http.MethodGet, "/api/signs/has", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/api/signs/suggest?q=hel&limit=1", nil, nil)
	assert.Equal(t, []interface{}{"hello"}, body["suggestions"])

	resp, body = s.do(t, http.MethodPost, "/api/signs/batch", map[string][]string{"words": {"help", "nope"}}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	results := body["results"].(map[string]interface{})
	assert.NotNil(t, results["help"])
	assert.Nil(t, results["nope"])

	resp, _ = s.do(t, http.MethodPost, "/api/signs/batch", map[string][]string{"words": {}}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/api/signs/words", nil, nil)
	assert.Equal(t, []interface{}{"hello", "help"}, body["words"])

	_, body = s.do(t, http.MethodGet, "/api/signs/random?count=5", nil, nil)
	assert.Equal(t, float64(2), body["count"])

	_, body = s.do(t, http.MethodGet, "/api/signs/stats", nil, nil)
	assert.Equal(t, float64(2), body["totalWords"])
	assert.Equal(t, "0.50", body["averageVideosPerWord"])
}

func TestTranslateRequiresSessionAndProxies(t *testing.T) {
	s := newTestServer(t)
	image := base64.StdEncoding.EncodeToString([]byte("frame"))

	resp, _ := s.do(t, http.MethodPost, "/api/translate", map[string]string{"image": image}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	cookie := s.registerAndVerify(t, "Ann", "ann@x.com", "secret1")
	auth := &http.Cookie{Name: cookie.Name, Value: cookie.Value}

	resp, body := s.do(t, http.MethodPost, "/api/translate", map[string]string{"image": image}, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "B", body["predicted_sign"])

	resp, _ = s.do(t, http.MethodPost, "/api/translate/realtime", map[string]string{"image": "data:image/png;base64," + image}, auth)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/translate", map[string]string{"image": "***"}, auth)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])

	resp, body = s.do(t, http.MethodGet, "/api/translate/model", nil, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	s.ml.Close()
	resp, body = s.do(t, http.MethodPost, "/api/translate", map[string]string{"image": image}, auth)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Translation service unavailable", body["error"])
}

func TestAdminPurge(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodDelete, "/api/admin/registrations/expired", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	user := s.registerAndVerify(t, "Ann", "ann@x.com", "secret1")
	resp, body := s.do(t, http.MethodDelete, "/api/admin/registrations/expired", nil, &http.Cookie{Name: user.Name, Value: user.Value})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required", body["message"])

	eve := s.registerAndVerifyAs(t, "Eve", "eve@x.com", "secret1", "admin")
	resp, _ = s.do(t, http.MethodDelete, "/api/admin/registrations/expired", nil, &http.Cookie{Name: eve.Name, Value: eve.Value})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "self-selected admin role grants nothing")

	boss := s.registerAndVerify(t, "Boss", "boss@x.com", "secret1")
	resp, body = s.do(t, http.MethodDelete, "/api/admin/registrations/expired", nil, &http.Cookie{Name: boss.Name, Value: boss.Value})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["deleted"])

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/registrations/expired", nil)
	req.Header.Set("X-Admin-Token", "admin-secret")
	resp, _ = s.send(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["ml"])
	assert.Equal(t, float64(2), body["signs"])
}

type downDB struct{}

func (downDB) Ping(context.Context) error {
	return errors.New(`dial tcp 10.0.0.5:5432: connect: connection refused`)
}

func TestHealth_DatabaseDownHidesDriverError(t *testing.T) {
	app := fiber.New()
	app.Get("/api/health", handlers.NewHealthHandler(downDB{}, nil, signs.Empty()).Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["db"])
	assert.Equal(t, "disabled", body["ml"])
	assert.NotContains(t, string(raw), "10.0.0.5")
}

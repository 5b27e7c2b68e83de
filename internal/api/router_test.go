package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cartas/cartas-api/internal/api/handler"
	"github.com/cartas/cartas-api/internal/api/metrics"
	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/service"
	"github.com/cartas/cartas-api/internal/infrastructure/db/memory"
	"github.com/cartas/cartas-api/internal/infrastructure/sanitize"
)

const (
	user1Password = "first-secret"
	user2Password = "second-secret"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testApp struct {
	e     *echo.Echo
	clock *clock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	clk := &clock{t: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)}
	log := zerolog.Nop()

	sessions, err := service.NewSessionManager([]byte("test-secret"), service.DefaultSessionTTL, clk.Now, log)
	require.NoError(t, err)

	auth := service.NewAuthService(service.PasswordHashes{
		User1: hash(t, user1Password),
		User2: hash(t, user2Password),
	}, sessions)

	repo := memory.NewLetterRepository()
	letters := service.NewLetterService(repo, sanitize.NewHTMLPolicy(), nil, clk.Now, log)

	e := NewRouter(Dependencies{
		Auth:      auth,
		Letters:   letters,
		Cookies:   session.Cookies{Secure: false, TTL: sessions.TTL()},
		Readiness: map[string]handler.Pinger{"store": repo},
		Logger:    log,
	})
	return &testApp{e: e, clock: clk}
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func (a *testApp) login(t *testing.T, password string) string {
	t.Helper()
	result := apitest.New().
		Handler(a.e).
		Post("/auth/login").
		JSON(`{"password":"` + password + `"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	for _, ck := range result.Response.Cookies() {
		if ck.Name == session.CookieName {
			return ck.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

func (a *testApp) compose(t *testing.T, token, subject string) string {
	t.Helper()
	var letter struct {
		ID string `json:"id"`
	}
	apitest.New().
		Handler(a.e).
		Post("/letters").
		Cookie(session.CookieName, token).
		JSON(`{"subject":"` + subject + `","body":"<p>hola</p>","signature":"Ana"}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&letter)
	require.NotEmpty(t, letter.ID)
	return letter.ID
}

func TestLoginThenMe(t *testing.T) {
	app := newTestApp(t)

	token := app.login(t, user1Password)

	apitest.New().
		Handler(app.e).
		Get("/auth/me").
		Cookie(session.CookieName, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.userId", "user_1")).
		End()
}

func TestLogin_Failures(t *testing.T) {
	app := newTestApp(t)

	apitest.New().Handler(app.e).
		Post("/auth/login").JSON(`{"password":"first-secre"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"invalid password"}`).
		End()

	apitest.New().Handler(app.e).
		Post("/auth/login").JSON(`{"password":""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"password is required"}`).
		End()
}

func TestLogin_MissingHashIsServerError(t *testing.T) {
	log := zerolog.Nop()
	sessions, err := service.NewSessionManager([]byte("test-secret"), time.Hour, nil, log)
	require.NoError(t, err)
	auth := service.NewAuthService(service.PasswordHashes{User1: hash(t, user1Password)}, sessions)
	e := NewRouter(Dependencies{
		Auth:    auth,
		Letters: service.NewLetterService(memory.NewLetterRepository(), sanitize.NewHTMLPolicy(), nil, nil, log),
		Logger:  log,
	})

	apitest.New().Handler(e).
		Post("/auth/login").JSON(`{"password":"anything"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Body(`{"error":"internal server error"}`).
		End()
}

func TestEditByOtherUserIsForbidden(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	bo := app.login(t, user2Password)
	id := app.compose(t, ana, "first draft")

	app.clock.Advance(time.Minute)

	apitest.New().Handler(app.e).
		Put("/letters/"+id).
		Cookie(session.CookieName, bo).
		JSON(`{"subject":"hijacked","body":"x","signature":"Bo"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"you can only edit your own letters"}`).
		End()

	apitest.New().Handler(app.e).
		Get("/letters").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$[0].subject", "first draft")).
		End()
}

func TestDeleteAfterWindowIsForbidden(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	id := app.compose(t, ana, "keep me")

	app.clock.Advance(5*time.Minute + time.Second)

	apitest.New().Handler(app.e).
		Delete("/letters/"+id).
		Cookie(session.CookieName, ana).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"delete window has expired (5 minutes)"}`).
		End()

	apitest.New().Handler(app.e).
		Get("/letters").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$", 1)).
		Assert(jsonpath.Equal("$[0].id", id)).
		End()
}

func TestOversizedBodyIsRejected(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)

	body := strings.Repeat("a", 10001)
	apitest.New().Handler(app.e).
		Post("/letters").
		Cookie(session.CookieName, ana).
		JSON(`{"subject":"long","body":"` + body + `","signature":"Ana"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"body must not exceed 10000 characters"}`).
		End()

	apitest.New().Handler(app.e).
		Get("/letters").
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()
}

func TestReadIsPublicWriteIsNot(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	app.compose(t, ana, "public")

	apitest.New().Handler(app.e).
		Get("/letters").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$", 1)).
		End()

	apitest.New().Handler(app.e).
		Post("/letters").
		JSON(`{"subject":"anon","body":"x","signature":"Anon"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"unauthorized"}`).
		End()
}

func TestEditWithinWindowKeepsDeadline(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	id := app.compose(t, ana, "v1")
	deadline := app.clock.Now().Add(5 * time.Minute).Format(time.RFC3339)

	for _, subject := range []string{"v2", "v3"} {
		app.clock.Advance(2 * time.Minute)
		apitest.New().Handler(app.e).
			Put("/letters/"+id).
			Cookie(session.CookieName, ana).
			JSON(`{"subject":"` + subject + `","body":"x","signature":"Ana"}`).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal("$.subject", subject)).
			Assert(jsonpath.Equal("$.editableUntil", deadline)).
			End()
	}

	app.clock.Advance(2 * time.Minute)
	apitest.New().Handler(app.e).
		Put("/letters/"+id).
		Cookie(session.CookieName, ana).
		JSON(`{"subject":"v4","body":"x","signature":"Ana"}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestDeleteOwnLetter(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	id := app.compose(t, ana, "bye")

	apitest.New().Handler(app.e).
		Delete("/letters/"+id).
		Cookie(session.CookieName, ana).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.success", true)).
		End()

	apitest.New().Handler(app.e).
		Delete("/letters/"+id).
		Cookie(session.CookieName, ana).
		Expect(t).
		Status(http.StatusNotFound).
		Body(`{"error":"letter not found"}`).
		End()
}

func TestBodyIsSanitized(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)

	var letter struct {
		Body string `json:"body"`
	}
	apitest.New().Handler(app.e).
		Post("/letters").
		Cookie(session.CookieName, ana).
		JSON(`{"subject":"x","body":"<p onclick=\"steal()\">hi</p><script>alert(1)</script>","signature":"Ana"}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&letter)

	assert.Equal(t, "<p>hi</p>", letter.Body)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)

	app.clock.Advance(service.DefaultSessionTTL + time.Second)

	apitest.New().Handler(app.e).
		Get("/auth/me").
		Cookie(session.CookieName, ana).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestGatedRoutes(t *testing.T) {
	app := newTestApp(t)

	apitest.New().Handler(app.e).
		Get("/").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/login").
		End()

	apitest.New().Handler(app.e).
		Get("/").
		Cookie(session.CookieName, "not-a-jwt").
		Expect(t).
		Status(http.StatusFound).
		End()

	ana := app.login(t, user1Password)
	apitest.New().Handler(app.e).
		Get("/").
		Cookie(session.CookieName, ana).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.userId", "user_1")).
		End()

	apitest.New().Handler(app.e).
		Get("/login").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(t)

	result := apitest.New().Handler(app.e).
		Post("/auth/logout").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"success":true}`).
		End()

	var cleared bool
	for _, ck := range result.Response.Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected an expired session cookie")
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	apitest.New().Handler(app.e).Get("/health").Expect(t).Status(http.StatusOK).End()
	apitest.New().Handler(app.e).
		Get("/health/ready").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.dependencies.store.status", "ok")).
		End()
	apitest.New().Handler(app.e).Get("/metrics").Expect(t).Status(http.StatusOK).End()
}

func TestMetricsCountFinalStatus(t *testing.T) {
	app := newTestApp(t)
	ana := app.login(t, user1Password)
	bo := app.login(t, user2Password)
	id := app.compose(t, ana, "mine")

	unauthorized := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/letters", "401")
	forbidden := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/letters/:id", "403")
	before401, before403 := testutil.ToFloat64(unauthorized), testutil.ToFloat64(forbidden)

	apitest.New().Handler(app.e).
		Post("/letters").
		JSON(`{"subject":"anon","body":"x","signature":"Anon"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().Handler(app.e).
		Delete("/letters/"+id).
		Cookie(session.CookieName, bo).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	assert.Equal(t, 1.0, testutil.ToFloat64(unauthorized)-before401)
	assert.Equal(t, 1.0, testutil.ToFloat64(forbidden)-before403)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/domain"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, password string) (*domain.Session, error)
	tokens  map[string]domain.Identity
}

func (s *stubAuthService) Login(ctx context.Context, password string) (*domain.Session, error) {
	return s.loginFn(ctx, password)
}

func (s *stubAuthService) Authenticate(token string) (domain.Identity, bool) {
	id, ok := s.tokens[token]
	return id, ok
}

var testCookies = session.Cookies{Secure: true, TTL: 24 * time.Hour}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withSession(c echo.Context, token string) {
	c.Request().AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, password string) (*domain.Session, error) {
			if password != "hunter2" {
				t.Fatalf("unexpected password %q", password)
			}
			return &domain.Session{UserID: domain.User2, Token: "tok"}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/login", `{"password":"hunter2"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.UserID != "user_2" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].Value != "tok" {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if strings.Contains(rec.Body.String(), "tok") {
		t.Fatal("token must not appear in the response body")
	}
}

func TestAuthHandler_Login_EmptyPassword(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, password string) (*domain.Session, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	c, _ := newJSONContext(e, http.MethodPost, "/auth/login", `{}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{}, testCookies)

	c, _ := newJSONContext(e, http.MethodPost, "/auth/login", `{"password":`)
	err := handler.Login(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_PropagatesServiceErrors(t *testing.T) {
	e := echo.New()
	for _, want := range []error{domain.ErrInvalidCredentials, fmt.Errorf("%w: hash missing", domain.ErrConfiguration)} {
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, password string) (*domain.Session, error) {
				return nil, want
			},
		}
		handler := NewAuthHandler(stub, testCookies)

		c, rec := newJSONContext(e, http.MethodPost, "/auth/login", `{"password":"nope"}`)
		if err := handler.Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatal("no cookie may be set on failure")
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{tokens: map[string]domain.Identity{"tok": domain.User1}}, testCookies)

	c, rec := newJSONContext(e, http.MethodGet, "/auth/me", "")
	withSession(c, "tok")
	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"userId":"user_1"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newJSONContext(e, http.MethodGet, "/auth/me", "")
	if err := handler.Me(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthHandler_Logout_IsIdempotent(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{}, testCookies)

	for i := 0; i < 2; i++ {
		c, rec := newJSONContext(e, http.MethodPost, "/auth/logout", "")
		if err := handler.Logout(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		ck := rec.Result().Cookies()
		if len(ck) != 1 || ck[0].MaxAge >= 0 {
			t.Fatalf("expected an expired cookie, got %+v", ck)
		}
	}
}

func TestAuthHandler_Index(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{tokens: map[string]domain.Identity{"tok": domain.User2}}, testCookies)

	c, rec := newJSONContext(e, http.MethodGet, "/", "")
	withSession(c, "tok")
	if err := handler.Index(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"userId":"user_2"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

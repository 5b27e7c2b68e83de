package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cartas/cartas-api/internal/api/metrics"
	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/domain"
	"github.com/cartas/cartas-api/internal/core/ports"
)

// AppName is reported by the index route.
const AppName = "cartas"

type AuthHandler struct {
	authService ports.AuthService
	cookies     session.Cookies
}

func NewAuthHandler(authService ports.AuthService, cookies session.Cookies) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type meResponse struct {
	UserID string `json:"userId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type indexResponse struct {
	App    string `json:"app"`
	UserID string `json:"userId"`
}

// errorResponse documents the error envelope rendered by the central HTTP
// error handler.
type errorResponse struct {
	Error string `json:"error"`
}

// Login checks the shared password and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("bad_request").Inc()
		return domain.ErrPasswordRequired
	}

	sess, err := h.authService.Login(c.Request().Context(), req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	h.cookies.Set(c, sess.Token)
	return c.JSON(http.StatusOK, loginResponse{Success: true, UserID: sess.UserID.String()})
}

// Me reports the identity behind the session cookie.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := session.Identity(c, h.authService)
	if !ok {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, meResponse{UserID: id.String()})
}

// Logout clears the session cookie. It succeeds with or without a session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  successResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c)
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// LoginPage is where the access gate sends unauthenticated requests.
//
// @Summary      Login entry point
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "POST your password to /auth/login"})
}

// Index is only reachable through the access gate.
//
// @Summary      Index
// @Tags         auth
// @Produce      json
// @Success      200  {object}  indexResponse
// @Failure      302
// @Router       / [get]
func (h *AuthHandler) Index(c echo.Context) error {
	id, ok := session.Identity(c, h.authService)
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.JSON(http.StatusOK, indexResponse{App: AppName, UserID: id.String()})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid"
	case errors.Is(err, domain.ErrPasswordRequired):
		return "bad_request"
	default:
		return "error"
	}
}

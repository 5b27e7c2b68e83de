package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/cartas/cartas-api/docs"
	"github.com/cartas/cartas-api/internal/api/handler"
	"github.com/cartas/cartas-api/internal/api/metrics"
	"github.com/cartas/cartas-api/internal/api/middleware"
	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth    ports.AuthService
	Letters ports.LetterService
	Cookies session.Cookies
	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]handler.Pinger
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(middleware.Gate(deps.Auth))

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookies)
	letterHandler := handler.NewLetterHandler(deps.Letters, deps.Auth)
	healthHandler := handler.NewHealthHandler(deps.Readiness)

	// --- Gated routes ---
	e.GET("/", authHandler.Index)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.GET(middleware.LoginPath, authHandler.LoginPage)
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// --- Letter routes (mutations authenticate in the handler) ---
	letters := e.Group("/letters")
	letters.GET("", letterHandler.List)
	letters.POST("", letterHandler.Create)
	letters.PUT("/:id", letterHandler.Update)
	letters.DELETE("/:id", letterHandler.Delete)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

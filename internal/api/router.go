package api

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/collabspace/collabspace/docs" // registers the swagger document

	"github.com/collabspace/collabspace/internal/api/handler"
	"github.com/collabspace/collabspace/internal/api/middleware"
	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/core/ports"
)

const bodyLimit = "1M"

// Deps is everything the HTTP layer needs from the rest of the process.
type Deps struct {
	Auth   ports.AuthService
	Tokens ports.TokenVerifier
	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger
	// StaticDir is served with HTML5 fallback when it exists.
	StaticDir string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	dashboardHandler := handler.NewDashboardHandler(deps.Auth)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Auth routes (public) ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// --- Dashboards (gated) ---
	e.GET("/api/admin/dashboard", dashboardHandler.Admin,
		middleware.Gate(deps.Tokens, domain.RoleAdmin))
	e.GET("/api/user/dashboard", dashboardHandler.User,
		middleware.Gate(deps.Tokens, domain.RoleAdmin, domain.RoleUser))

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Observability ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err == nil && info.IsDir() {
			e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
				Root:    deps.StaticDir,
				HTML5:   true,
				Skipper: skipStatic,
			}))
		}
	}

	return e
}

// skipStatic keeps API and operational paths out of the front-end fallback
// so unknown API routes still answer with JSON.
func skipStatic(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, prefix := range []string{"/api", "/health", "/metrics", "/swagger"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

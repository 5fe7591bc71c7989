package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/task-system/docs"
	"github.com/99minutos/task-system/internal/api/handler"
	"github.com/99minutos/task-system/internal/api/middleware"
	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

const welcomeMessage = "Welcome to Task Management System with Secure Auth"

// Deps carries everything the HTTP layer needs. Services are constructed by
// the caller so tests can wire them over in-memory stores.
type Deps struct {
	Auth   ports.AuthService
	Tasks  ports.TaskService
	Tokens ports.TokenVerifier
	Health []handler.Dependency
	Logger zerolog.Logger
	// Metrics enables the Prometheus middleware and the /metrics endpoint.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("1M"))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("task_system"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	taskHandler := handler.NewTaskHandler(d.Tasks)
	healthHandler := handler.NewHealthHandler(d.Logger, d.Health...)
	requireAuth := middleware.Auth(d.Tokens)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, welcomeMessage)
	})
	e.GET("/apidocs/*", echoSwagger.WrapHandler)

	// --- User routes ---
	user := e.Group("/user")
	user.POST("/signup", authHandler.Signup)
	user.POST("/login", authHandler.Login)
	user.GET("/me", authHandler.Me, requireAuth)

	admin := e.Group("/admin", requireAuth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", authHandler.ListUsers)

	// --- Task routes (bearer token required) ---
	task := e.Group("/task", requireAuth)
	task.POST("/create", taskHandler.Create)
	task.GET("", taskHandler.List)
	task.PUT("/edit/:id", taskHandler.Edit)
	task.DELETE("/delete/:id", taskHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

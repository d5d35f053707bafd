package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/todo"
	"github.com/example/todo-app/pkg/res"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Module serves the REST API with Fiber.
type Module struct {
	app       *fiber.App
	cfg       config.HTTPConfig
	env       string
	todos     todo.TodoPort
	activity  activity.ActivityPort
	limiter   fiber.Handler
	logger    types.Logger
	startedAt time.Time

	hideErrorDetails bool
}

// Option configures the API module.
type Option func(*Module)

// WithHiddenErrorDetails drops underlying error text from 500 and 503
// responses. Production deployments set it.
func WithHiddenErrorDetails(hide bool) Option {
	return func(m *Module) {
		m.hideErrorDetails = hide
	}
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module. limiter may be nil.
func NewModule(cfg config.HTTPConfig, env string, todos todo.TodoPort, limiter fiber.Handler, logger types.Logger, opts ...Option) *Module {
	m := &Module{
		cfg:     cfg,
		env:     env,
		todos:   todos,
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Name() string {
	return "api"
}

func (m *Module) Dependencies() []string {
	return []string{"todo", "activity"}
}

func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "activity":
		m.activity = activity.NewActivityAdapter(container)
	}
}

// Start builds the Fiber app and begins listening.
func (m *Module) Start(_ context.Context) error {
	if m.todos == nil {
		return fmt.Errorf("todo port not set")
	}

	m.startedAt = time.Now()
	m.app = newApp(m.cfg, m.logger)

	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency} ${locals:requestid}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.CORSAllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	h := NewHandlers(m.todos, m.activity, m.env, m.startedAt)
	h.hideDetails = m.hideErrorDetails
	registerRoutes(m.app, h, m.limiter)

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Address()); err != nil {
			errCh <- err
		}
	}()

	// Catch immediate startup errors (port in use, permission denied)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.Address(), "env", m.env)
	return nil
}

// Stop drains in-flight requests.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":   m.cfg.Address(),
			"uptime": time.Since(m.startedAt).Round(time.Second).String(),
		},
	}
}

// newApp returns a Fiber app with recovery, request ids and the envelope
// error handler installed.
func newApp(cfg config.HTTPConfig, log types.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Todo API",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	return app
}

// registerRoutes wires the endpoints. /api/todos/stats precedes /:id.
func registerRoutes(app *fiber.App, h *Handlers, limiter fiber.Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	if limiter != nil {
		api.Use(limiter)
	}
	api.Get("/", h.Info)

	todos := api.Group("/todos")
	todos.Get("/", h.ListTodos)
	todos.Post("/", h.CreateTodo)
	todos.Get("/stats", h.Stats)
	todos.Get("/:id", h.GetTodo)
	todos.Put("/:id", h.UpdateTodo)
	todos.Delete("/:id", h.DeleteTodo)

	api.Get("/activity", h.Activity)

	app.Use(func(c *fiber.Ctx) error {
		return res.Error(c, fiber.StatusNotFound, "Route not found",
			fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
	})
}

func errorHandler(log types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
		}
		return res.Error(c, code, strings.TrimSpace(message), "")
	}
}

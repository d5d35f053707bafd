package api

import (
	"errors"
	"runtime"
	"strconv"
	"time"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/todo"
	"github.com/example/todo-app/pkg/res"
	"github.com/gofiber/fiber/v2"
)

const defaultActivityLimit = 20

// Handlers holds the HTTP handlers for the todo API.
type Handlers struct {
	todos       todo.TodoPort
	activity    activity.ActivityPort
	env         string
	startedAt   time.Time
	hideDetails bool // omit underlying error text from 500 and 503 responses
}

// NewHandlers creates handlers. activity may be nil.
func NewHandlers(todos todo.TodoPort, activity activity.ActivityPort, env string, startedAt time.Time) *Handlers {
	return &Handlers{
		todos:     todos,
		activity:  activity,
		env:       env,
		startedAt: startedAt,
	}
}

// Info handles GET /api.
func (h *Handlers) Info(c *fiber.Ctx) error {
	return res.OK(c, fiber.StatusOK, fiber.Map{
		"name":        "Todo API",
		"environment": h.env,
		"endpoints": fiber.Map{
			"health":     "GET /health",
			"info":       "GET /api",
			"listTodos":  "GET /api/todos?completed=&limit=&offset=",
			"getTodo":    "GET /api/todos/:id",
			"createTodo": "POST /api/todos",
			"updateTodo": "PUT /api/todos/:id",
			"deleteTodo": "DELETE /api/todos/:id",
			"stats":      "GET /api/todos/stats",
			"activity":   "GET /api/activity?limit=",
		},
	})
}

type healthDatabase struct {
	Connected  bool       `json:"connected"`
	ServerTime *time.Time `json:"serverTime,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type healthSystem struct {
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAllocBytes"`
	Sys        uint64 `json:"sysBytes"`
}

type healthResponse struct {
	Success     bool           `json:"success"`
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Environment string         `json:"environment"`
	Uptime      float64        `json:"uptime"`
	Database    healthDatabase `json:"database"`
	System      *healthSystem  `json:"system,omitempty"`
}

// Health handles GET /health. It answers 503 when the store cannot be reached.
func (h *Handlers) Health(c *fiber.Ctx) error {
	resp := healthResponse{
		Timestamp:   time.Now().UTC(),
		Environment: h.env,
		Uptime:      time.Since(h.startedAt).Seconds(),
	}

	serverTime, err := h.todos.Ping(c.UserContext())
	if err != nil {
		resp.Status = "ERROR"
		resp.Database = healthDatabase{Connected: false, Error: "database unreachable"}
		if !h.hideDetails {
			resp.Database.Error = err.Error()
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp.Success = true
	resp.Status = "OK"
	resp.Database = healthDatabase{Connected: true, ServerTime: &serverTime}
	resp.System = &healthSystem{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Sys:        mem.Sys,
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// ListTodos handles GET /api/todos.
func (h *Handlers) ListTodos(c *fiber.Ctx) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return h.fail(c, err, "fetching todos")
	}

	todos, err := h.todos.List(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, err, "fetching todos")
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return res.List(c, todos, len(todos))
}

// GetTodo handles GET /api/todos/:id.
func (h *Handlers) GetTodo(c *fiber.Ctx) error {
	id, err := domain.ParseID(c.Params("id"))
	if err != nil {
		return h.fail(c, err, "fetching todo")
	}

	t, err := h.todos.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "fetching todo")
	}
	return res.OK(c, fiber.StatusOK, t)
}

type createTodoRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// CreateTodo handles POST /api/todos.
func (h *Handlers) CreateTodo(c *fiber.Ctx) error {
	var req createTodoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return res.Error(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
	}

	t, err := h.todos.Create(c.UserContext(), domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, err, "creating todo")
	}
	return res.OKMessage(c, fiber.StatusCreated, t, "Todo created successfully")
}

type updateTodoRequest struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Completed   *bool   `json:"completed" form:"completed"`
}

// UpdateTodo handles PUT /api/todos/:id.
func (h *Handlers) UpdateTodo(c *fiber.Ctx) error {
	id, err := domain.ParseID(c.Params("id"))
	if err != nil {
		return h.fail(c, err, "updating todo")
	}

	var req updateTodoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return res.Error(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
	}

	t, err := h.todos.Update(c.UserContext(), id, domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return h.fail(c, err, "updating todo")
	}
	return res.OKMessage(c, fiber.StatusOK, t, "Todo updated successfully")
}

// DeleteTodo handles DELETE /api/todos/:id.
func (h *Handlers) DeleteTodo(c *fiber.Ctx) error {
	id, err := domain.ParseID(c.Params("id"))
	if err != nil {
		return h.fail(c, err, "deleting todo")
	}

	t, err := h.todos.Delete(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "deleting todo")
	}
	return res.OKMessage(c, fiber.StatusOK, t, "Todo deleted successfully")
}

// Stats handles GET /api/todos/stats.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	st, err := h.todos.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err, "fetching stats")
	}
	return res.OK(c, fiber.StatusOK, st)
}

// Activity handles GET /api/activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	if h.activity == nil {
		return res.List(c, []activity.Entry{}, 0)
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > domain.MaxListLimit {
			return h.fail(c, domain.InvalidArgument("limit must be between 1 and %d", domain.MaxListLimit), "fetching activity")
		}
		limit = n
	}

	entries, err := h.activity.Recent(c.UserContext(), limit)
	if err != nil {
		return h.fail(c, err, "fetching activity")
	}
	return res.List(c, entries, len(entries))
}

// parseListFilter reads completed, limit and offset. Absent or empty
// parameters are left unset; malformed ones are InvalidArgument.
func parseListFilter(c *fiber.Ctx) (domain.ListFilter, error) {
	var f domain.ListFilter

	if raw := c.Query("completed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, domain.InvalidArgument("completed must be true or false")
		}
		f.Completed = &b
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, domain.InvalidArgument("limit must be an integer")
		}
		f.Limit = &n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, domain.InvalidArgument("offset must be an integer")
		}
		f.Offset = &n
	}
	return f, nil
}

// fail maps an error to its status: InvalidArgument 400, NotFound 404,
// anything else 500. With hideDetails set, a 500 carries no message.
func (h *Handlers) fail(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return res.Error(c, fiber.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrNotFound):
		return res.Error(c, fiber.StatusNotFound, "Todo not found", err.Error())
	default:
		detail := err.Error()
		if h.hideDetails {
			detail = ""
		}
		return res.Error(c, fiber.StatusInternalServerError, "Server error while "+action, detail)
	}
}

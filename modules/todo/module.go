package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/todo-app/config"
	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module owns the todo store and exposes the todo service in-process, over
// request-reply services and through domain events.
type Module struct {
	cfg      config.DatabaseConfig
	store    domain.Store
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
	injected bool
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ TodoPort                   = (*Module)(nil)
)

// NewModule creates a Module that opens the store configured by cfg on Start.
func NewModule(cfg config.DatabaseConfig, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// NewModuleWithStore creates a Module over an already opened store.
// Start skips opening a database.
func NewModuleWithStore(store domain.Store, logger types.Logger, opts ...ServiceOption) *Module {
	return &Module{
		store:    store,
		service:  NewService(store, opts...),
		logger:   logger,
		injected: true,
	}
}

func (m *Module) Name() string {
	return "todo"
}

func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoCreatedV1.ToBase(),
		events.TodoUpdatedV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
	}
}

// RegisterServices registers services.todo.{list,get,create,update,delete,stats}.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "stats", json.Unmarshal, json.Marshal, m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register stats service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.todo.{list,get,create,update,delete,stats}")
	return nil
}

// Start opens the configured store and applies the schema.
func (m *Module) Start(ctx context.Context) error {
	if m.injected {
		m.logger.Info("Module started with injected store")
		return nil
	}

	switch m.cfg.Driver {
	case config.DriverSQLite:
		m.logger.Info("Opening SQLite database", "path", m.cfg.SQLitePath)
		store, err := OpenSQLite(m.cfg.SQLitePath, m.cfg.Debug, WithSQLiteTimeout(m.cfg.AcquireTimeout))
		if err != nil {
			return err
		}
		m.store = store
	default:
		store, err := m.openPostgres(ctx)
		if err != nil {
			return err
		}
		m.store = store
	}

	m.service = NewService(m.store)
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, todo events will not be published")
	}
	m.logger.Info("Module started", "driver", m.cfg.Driver)
	return nil
}

func (m *Module) openPostgres(ctx context.Context) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(m.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	poolCfg.MaxConns = m.cfg.MaxConns
	poolCfg.MaxConnIdleTime = m.cfg.IdleTimeout
	poolCfg.ConnConfig.ConnectTimeout = m.cfg.ConnectTimeout

	m.logger.Info("Connecting to PostgreSQL", "host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresStore(pool, m.cfg.AcquireTimeout)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Stop closes the store.
func (m *Module) Stop(_ context.Context) error {
	if m.store == nil {
		return nil
	}
	m.logger.Info("Closing todo store")
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	serverTime, err := m.store.Ping(ctx)
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	details := map[string]any{
		"driver":      m.cfg.Driver,
		"server_time": serverTime,
	}
	if pg, ok := m.store.(*PostgresStore); ok {
		stat := pg.Stat()
		details["total_conns"] = stat.TotalConns()
		details["idle_conns"] = stat.IdleConns()
		details["max_conns"] = stat.MaxConns()
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

func (m *Module) svc() (*Service, error) {
	if m.service == nil {
		return nil, domain.Unavailable(fmt.Errorf("todo module not started"))
	}
	return m.service, nil
}

// TodoPort implementation. Mutations publish events on success.

func (m *Module) List(ctx context.Context, filter domain.ListFilter) ([]domain.Todo, error) {
	s, err := m.svc()
	if err != nil {
		return nil, err
	}
	return s.List(ctx, filter)
}

func (m *Module) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	s, err := m.svc()
	if err != nil {
		return domain.Todo{}, err
	}
	return s.Get(ctx, id)
}

func (m *Module) Create(ctx context.Context, in domain.CreateInput) (domain.Todo, error) {
	s, err := m.svc()
	if err != nil {
		return domain.Todo{}, err
	}
	t, err := s.Create(ctx, in)
	if err != nil {
		return domain.Todo{}, err
	}

	m.publish(func(bus mono.EventBus) error {
		return events.TodoCreatedV1.Publish(bus, events.TodoCreatedEvent{
			ID:        int64(t.ID),
			Title:     t.Title,
			CreatedAt: t.CreatedAt,
		}, nil)
	}, "TodoCreated", t.ID)
	return t, nil
}

func (m *Module) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error) {
	s, err := m.svc()
	if err != nil {
		return domain.Todo{}, err
	}
	t, err := s.Update(ctx, id, patch)
	if err != nil {
		return domain.Todo{}, err
	}

	m.publish(func(bus mono.EventBus) error {
		return events.TodoUpdatedV1.Publish(bus, events.TodoUpdatedEvent{
			ID:        int64(t.ID),
			Title:     t.Title,
			Completed: t.Completed,
			Fields:    patchFields(patch),
			UpdatedAt: t.UpdatedAt,
		}, nil)
	}, "TodoUpdated", t.ID)
	return t, nil
}

func (m *Module) Delete(ctx context.Context, id domain.ID) (domain.Todo, error) {
	s, err := m.svc()
	if err != nil {
		return domain.Todo{}, err
	}
	t, err := s.Delete(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}

	m.publish(func(bus mono.EventBus) error {
		return events.TodoDeletedV1.Publish(bus, events.TodoDeletedEvent{
			ID:        int64(t.ID),
			Title:     t.Title,
			DeletedAt: time.Now(),
		}, nil)
	}, "TodoDeleted", t.ID)
	return t, nil
}

func (m *Module) Stats(ctx context.Context) (domain.Stats, error) {
	s, err := m.svc()
	if err != nil {
		return domain.Stats{}, err
	}
	return s.Stats(ctx)
}

func (m *Module) Ping(ctx context.Context) (time.Time, error) {
	s, err := m.svc()
	if err != nil {
		return time.Time{}, err
	}
	return s.Ping(ctx)
}

// publish is best-effort: the mutation already succeeded.
func (m *Module) publish(send func(mono.EventBus) error, name string, id domain.ID) {
	if m.eventBus == nil {
		return
	}
	if err := send(m.eventBus); err != nil {
		m.logger.Warn("Failed to publish event", "event", name, "id", int64(id), "error", err)
	}
}

func patchFields(p domain.Patch) []string {
	fields := make([]string, 0, 3)
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Completed != nil {
		fields = append(fields, "completed")
	}
	return fields
}

// Request-reply handlers.

func (m *Module) handleList(ctx context.Context, req ListTodosRequest, _ *mono.Msg) (ListTodosResponse, error) {
	todos, err := m.List(ctx, req.ListFilter)
	if err != nil {
		return ListTodosResponse{}, err
	}
	return ListTodosResponse{Todos: todos, Count: len(todos)}, nil
}

func (m *Module) handleGet(ctx context.Context, req GetTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	return m.Get(ctx, req.ID)
}

func (m *Module) handleCreate(ctx context.Context, req CreateTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	return m.Create(ctx, req.CreateInput)
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	return m.Update(ctx, req.ID, req.Patch)
}

func (m *Module) handleDelete(ctx context.Context, req DeleteTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	return m.Delete(ctx, req.ID)
}

func (m *Module) handleStats(ctx context.Context, _ StatsRequest, _ *mono.Msg) (domain.Stats, error) {
	return m.Stats(ctx)
}

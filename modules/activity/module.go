package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Entry types.
const (
	TypeCreated = "todo_created"
	TypeUpdated = "todo_updated"
	TypeDeleted = "todo_deleted"
)

// Module consumes todo events and serves the recent activity feed.
type Module struct {
	feed   *Feed
	logger types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

func NewModule(capacity int, logger types.Logger) *Module {
	return &Module{
		feed:   NewFeed(capacity),
		logger: logger,
	}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoCreatedV1, m.handleTodoCreated, m); err != nil {
		return fmt.Errorf("failed to register TodoCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoUpdatedV1, m.handleTodoUpdated, m); err != nil {
		return fmt.Errorf("failed to register TodoUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoDeletedV1, m.handleTodoDeleted, m); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TodoCreated.v1", "TodoUpdated.v1", "TodoDeleted.v1"})
	return nil
}

func (m *Module) handleTodoCreated(_ context.Context, event events.TodoCreatedEvent, _ *mono.Msg) error {
	m.feed.Record(Entry{
		Type:      TypeCreated,
		TodoID:    event.ID,
		Title:     event.Title,
		Message:   fmt.Sprintf("Created %q", event.Title),
		Timestamp: event.CreatedAt,
	})
	m.logger.Debug("Recorded todo creation", "id", event.ID)
	return nil
}

func (m *Module) handleTodoUpdated(_ context.Context, event events.TodoUpdatedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Updated %q", event.Title)
	if len(event.Fields) == 1 && event.Fields[0] == "completed" {
		if event.Completed {
			msg = fmt.Sprintf("Completed %q", event.Title)
		} else {
			msg = fmt.Sprintf("Reopened %q", event.Title)
		}
	}
	m.feed.Record(Entry{
		Type:      TypeUpdated,
		TodoID:    event.ID,
		Title:     event.Title,
		Message:   msg,
		Timestamp: event.UpdatedAt,
	})
	m.logger.Debug("Recorded todo update", "id", event.ID, "fields", event.Fields)
	return nil
}

func (m *Module) handleTodoDeleted(_ context.Context, event events.TodoDeletedEvent, _ *mono.Msg) error {
	m.feed.Record(Entry{
		Type:      TypeDeleted,
		TodoID:    event.ID,
		Title:     event.Title,
		Message:   fmt.Sprintf("Deleted %q", event.Title),
		Timestamp: event.DeletedAt,
	})
	m.logger.Debug("Recorded todo deletion", "id", event.ID)
	return nil
}

// RegisterServices registers services.activity.recent.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent", json.Unmarshal, json.Marshal, m.handleRecent,
	); err != nil {
		return fmt.Errorf("failed to register recent service: %w", err)
	}
	m.logger.Info("Registered services", "services", "services.activity.recent")
	return nil
}

func (m *Module) handleRecent(_ context.Context, req RecentRequest, _ *mono.Msg) (RecentResponse, error) {
	entries := m.feed.Recent(req.Limit)
	return RecentResponse{Entries: entries, Count: len(entries)}, nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "capacity", m.feed.capacity)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"entries":  m.feed.Len(),
			"capacity": m.feed.capacity,
		},
	}
}

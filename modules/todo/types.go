package todo

import (
	"context"
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

// TodoPort is the in-process API the HTTP surface calls.
type TodoPort interface {
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Todo, error)
	Get(ctx context.Context, id domain.ID) (domain.Todo, error)
	Create(ctx context.Context, in domain.CreateInput) (domain.Todo, error)
	Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error)
	Delete(ctx context.Context, id domain.ID) (domain.Todo, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Ping(ctx context.Context) (time.Time, error)
}

// Request and response payloads for the services.todo.* request-reply services.

type ListTodosRequest struct {
	domain.ListFilter
}

type ListTodosResponse struct {
	Todos []domain.Todo `json:"todos"`
	Count int           `json:"count"`
}

type GetTodoRequest struct {
	ID domain.ID `json:"id"`
}

type CreateTodoRequest struct {
	domain.CreateInput
}

type UpdateTodoRequest struct {
	ID domain.ID `json:"id"`
	domain.Patch
}

type DeleteTodoRequest struct {
	ID domain.ID `json:"id"`
}

type StatsRequest struct{}

package client

import (
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

// ConnectionError is shown for every failed call. Server messages are not
// surfaced on the board.
const ConnectionError = "Unable to connect to the server"

// Op is the action a Result answers.
type Op int

const (
	OpList Op = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Client call, fed to Board.Apply.
type Result struct {
	Op    Op
	Todo  domain.Todo
	Todos []domain.Todo
	Err   error
}

// View selects which todos a board shows.
type View int

const (
	ViewAll View = iota
	ViewToday
)

func (v View) String() string {
	if v == ViewToday {
		return "Today"
	}
	return "All"
}

// Next cycles All -> Today -> All.
func (v View) Next() View {
	if v == ViewAll {
		return ViewToday
	}
	return ViewAll
}

// Board is the client-side mirror of the server's todos. It changes only in
// response to successful server results.
type Board struct {
	todos    []domain.Todo
	selected domain.ID
	message  string
	now      func() time.Time
}

// NewBoard returns an empty board using the local clock for the Today view.
func NewBoard() *Board {
	return &Board{now: time.Now}
}

// Apply reconciles r into the board. A failed result only sets the error
// message.
func (b *Board) Apply(r Result) {
	if r.Err != nil {
		b.message = ConnectionError
		return
	}
	b.message = ""

	switch r.Op {
	case OpList:
		b.todos = append([]domain.Todo(nil), r.Todos...)
		if _, ok := b.index(b.selected); !ok {
			b.selected = 0
		}
	case OpCreate:
		b.todos = append([]domain.Todo{r.Todo}, b.todos...)
		b.selected = r.Todo.ID
	case OpUpdate:
		if i, ok := b.index(r.Todo.ID); ok {
			b.todos[i] = r.Todo
		}
	case OpDelete:
		if i, ok := b.index(r.Todo.ID); ok {
			b.todos = append(b.todos[:i], b.todos[i+1:]...)
		}
		if b.selected == r.Todo.ID {
			b.selected = 0
		}
	}
}

func (b *Board) index(id domain.ID) (int, bool) {
	if !id.Valid() {
		return -1, false
	}
	for i := range b.todos {
		if b.todos[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Todos returns the todos visible in v, in server order.
func (b *Board) Todos(v View) []domain.Todo {
	if v == ViewAll {
		return append([]domain.Todo(nil), b.todos...)
	}

	start, end := domain.DayBounds(b.now())
	out := make([]domain.Todo, 0, len(b.todos))
	for _, t := range b.todos {
		if !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns how many todos v shows.
func (b *Board) Count(v View) int {
	if v == ViewAll {
		return len(b.todos)
	}
	return len(b.Todos(v))
}

// Select marks id as the selected todo. Unknown ids clear the selection.
func (b *Board) Select(id domain.ID) {
	if _, ok := b.index(id); ok {
		b.selected = id
		return
	}
	b.selected = 0
}

// Selected returns the selected todo, if any.
func (b *Board) Selected() (domain.Todo, bool) {
	if i, ok := b.index(b.selected); ok {
		return b.todos[i], true
	}
	return domain.Todo{}, false
}

// Error returns the message of the last failed result, or "".
func (b *Board) Error() string { return b.message }

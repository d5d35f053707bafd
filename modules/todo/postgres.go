package todo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements domain.Store on a pgx connection pool.
type PostgresStore struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

var _ domain.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps pool. Every call waits at most acquireTimeout for a
// pooled connection.
func NewPostgresStore(pool *pgxpool.Pool, acquireTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:           pool,
		acquireTimeout: acquireTimeout,
	}
}

// Migrate creates the todos table and its indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.pool.Acquire(actx)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return conn, nil
}

func (s *PostgresStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Todo, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	q := BuildListQuery(filter, Dollar)
	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	todos, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Todo])
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return domain.Todo{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, "SELECT "+todoColumns+" FROM todos WHERE id = $1", int64(id))
	if err != nil {
		return domain.Todo{}, fmt.Errorf("get todo: %w", err)
	}
	return collectOne(rows, id, "get todo")
}

func (s *PostgresStore) Create(ctx context.Context, title, description string) (domain.Todo, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return domain.Todo{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		"INSERT INTO todos (title, description) VALUES ($1, $2) RETURNING "+todoColumns,
		title, description,
	)
	if err != nil {
		return domain.Todo{}, translatePgError("create todo", err)
	}
	return collectOne(rows, 0, "create todo")
}

func (s *PostgresStore) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return domain.Todo{}, err
	}
	defer conn.Release()

	q := BuildUpdateQuery(id, patch, time.Time{}, Dollar)
	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return domain.Todo{}, translatePgError("update todo", err)
	}
	return collectOne(rows, id, "update todo")
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.ID) (domain.Todo, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return domain.Todo{}, err
	}
	defer conn.Release()

	q := BuildDeleteQuery(id, Dollar)
	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("delete todo: %w", err)
	}
	return collectOne(rows, id, "delete todo")
}

func (s *PostgresStore) Stats(ctx context.Context, dayStart, dayEnd time.Time) (domain.Stats, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	defer conn.Release()

	var st domain.Stats
	q := BuildStatsQuery(dayStart, dayEnd, Dollar)
	if err := conn.QueryRow(ctx, q.SQL, q.Args...).Scan(&st.Total, &st.Completed, &st.Pending, &st.Today); err != nil {
		return domain.Stats{}, fmt.Errorf("todo stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) Ping(ctx context.Context) (time.Time, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Release()

	var now time.Time
	if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("ping database: %w", err)
	}
	return now, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Stat exposes pool counters for health reporting.
func (s *PostgresStore) Stat() *pgxpool.Stat {
	return s.pool.Stat()
}

func collectOne(rows pgx.Rows, id domain.ID, op string) (domain.Todo, error) {
	t, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.Todo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Todo{}, domain.NotFound(id)
		}
		return domain.Todo{}, translatePgError(op, err)
	}
	return t, nil
}

// translatePgError maps constraint violations the service should have
// caught to InvalidArgument.
func translatePgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", "22001", "23502":
			return domain.InvalidArgument("%s: %s", op, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

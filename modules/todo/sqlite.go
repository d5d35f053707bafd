package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/todo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements domain.Store with GORM over SQLite. Timestamps are
// written in UTC from the store clock.
type SQLiteStore struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

var _ domain.Store = (*SQLiteStore)(nil)

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock replaces time.Now as the source of created_at/updated_at.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// WithSQLiteTimeout bounds every store call.
func WithSQLiteTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		s.timeout = d
	}
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string, debug bool, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		timeout: 2 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return s.now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Todo{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	return s, nil
}

func (s *SQLiteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// classify turns a timeout of the store's own deadline into StoreUnavailable.
func (s *SQLiteStore) classify(parent context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return domain.Unavailable(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *SQLiteStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Todo, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := BuildListQuery(filter, Question)
	todos := []domain.Todo{}
	if err := s.db.WithContext(cctx).Raw(q.SQL, q.Args...).Scan(&todos).Error; err != nil {
		return nil, s.classify(ctx, "list todos", err)
	}
	return todos, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var t domain.Todo
	if err := s.db.WithContext(cctx).Where("id = ?", int64(id)).Take(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Todo{}, domain.NotFound(id)
		}
		return domain.Todo{}, s.classify(ctx, "get todo", err)
	}
	return t, nil
}

func (s *SQLiteStore) Create(ctx context.Context, title, description string) (domain.Todo, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	t := domain.Todo{Title: title, Description: description}
	if err := s.db.WithContext(cctx).Create(&t).Error; err != nil {
		return domain.Todo{}, s.classify(ctx, "create todo", err)
	}
	return t, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var t domain.Todo
	q := BuildUpdateQuery(id, patch, s.now().UTC(), Question)
	tx := s.db.WithContext(cctx).Raw(q.SQL, q.Args...).Scan(&t)
	if tx.Error != nil {
		return domain.Todo{}, s.classify(ctx, "update todo", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.Todo{}, domain.NotFound(id)
	}
	return t, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id domain.ID) (domain.Todo, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var t domain.Todo
	q := BuildDeleteQuery(id, Question)
	tx := s.db.WithContext(cctx).Raw(q.SQL, q.Args...).Scan(&t)
	if tx.Error != nil {
		return domain.Todo{}, s.classify(ctx, "delete todo", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.Todo{}, domain.NotFound(id)
	}
	return t, nil
}

func (s *SQLiteStore) Stats(ctx context.Context, dayStart, dayEnd time.Time) (domain.Stats, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var st domain.Stats
	q := BuildStatsQuery(dayStart.UTC(), dayEnd.UTC(), Question)
	row := s.db.WithContext(cctx).Raw(q.SQL, q.Args...).Row()
	if err := row.Scan(&st.Total, &st.Completed, &st.Pending, &st.Today); err != nil {
		return domain.Stats{}, s.classify(ctx, "todo stats", err)
	}
	return st, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) (time.Time, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(cctx); err != nil {
		return time.Time{}, s.classify(ctx, "ping database", err)
	}
	return s.now(), nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package todo

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/todo-app/domain/todo"
	"golang.org/x/sync/singleflight"
)

// Service validates requests and delegates persistence to a domain.Store.
// It holds no per-request state.
type Service struct {
	store        domain.Store
	now          func() time.Time
	statsTimeout time.Duration
	sfGroup      singleflight.Group // coalesces concurrent stats reads
}

// DefaultStatsTimeout bounds a shared stats query.
const DefaultStatsTimeout = 10 * time.Second

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the clock that decides which calendar day counts as today.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithStatsTimeout bounds the shared stats query.
func WithStatsTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.statsTimeout = d
		}
	}
}

// NewService creates a Service over store.
func NewService(store domain.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		now:          time.Now,
		statsTimeout: DefaultStatsTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns todos newest first, optionally filtered and paged.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Todo, error) {
	if filter.Limit != nil && (*filter.Limit < 1 || *filter.Limit > domain.MaxListLimit) {
		return nil, domain.InvalidArgument("limit must be between 1 and %d", domain.MaxListLimit)
	}
	if filter.Offset != nil && *filter.Offset < 0 {
		return nil, domain.InvalidArgument("offset must be zero or greater")
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	if !id.Valid() {
		return domain.Todo{}, domain.InvalidArgument("todo id must be a positive integer")
	}
	return s.store.Get(ctx, id)
}

// Create stores a new todo with trimmed title and description.
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (domain.Todo, error) {
	if err := validateTitle(in.Title); err != nil {
		return domain.Todo{}, err
	}
	return s.store.Create(ctx, strings.TrimSpace(in.Title), strings.TrimSpace(in.Description))
}

// Update applies the supplied fields and refreshes updated_at.
func (s *Service) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error) {
	if !id.Valid() {
		return domain.Todo{}, domain.InvalidArgument("todo id must be a positive integer")
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return domain.Todo{}, err
		}
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}
	return s.store.Update(ctx, id, patch)
}

// Delete removes a todo and returns it as it was.
func (s *Service) Delete(ctx context.Context, id domain.ID) (domain.Todo, error) {
	if !id.Valid() {
		return domain.Todo{}, domain.InvalidArgument("todo id must be a positive integer")
	}
	return s.store.Delete(ctx, id)
}

// Stats counts todos. Today is the service clock's local calendar day.
// Concurrent callers share one store query. The query runs detached from any
// single caller, bounded by statsTimeout, and each caller stops waiting when
// its own context ends.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	start, end := domain.DayBounds(s.now())

	ch := s.sfGroup.DoChan("stats:"+start.Format(time.RFC3339), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.statsTimeout)
		defer cancel()
		return s.store.Stats(sctx, start, end)
	})

	select {
	case <-ctx.Done():
		return domain.Stats{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return domain.Stats{}, r.Err
		}
		return r.Val.(domain.Stats), nil
	}
}

// Ping probes the store and returns its clock.
func (s *Service) Ping(ctx context.Context) (time.Time, error) {
	return s.store.Ping(ctx)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.InvalidArgument("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return domain.InvalidArgument("title cannot exceed %d characters", domain.MaxTitleLength)
	}
	return nil
}

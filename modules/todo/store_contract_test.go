package todo

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

// runStoreContract exercises behaviour every domain.Store must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.Create(ctx, "Write report", "quarterly")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if !created.ID.Valid() {
			t.Fatalf("expected assigned id, got %d", created.ID)
		}
		if created.Completed {
			t.Error("new todo should not be completed")
		}
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Errorf("created_at %v should equal updated_at %v", created.CreatedAt, created.UpdatedAt)
		}

		got, err := s.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Write report" || got.Description != "quarterly" {
			t.Errorf("unexpected todo %+v", got)
		}
		if !got.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("created_at changed: %v vs %v", got.CreatedAt, created.CreatedAt)
		}

		if _, err := s.Get(ctx, created.ID+1000); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ids are never reused", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		first, _ := s.Create(ctx, "one", "")
		second, _ := s.Create(ctx, "two", "")
		if first.ID == second.ID {
			t.Fatal("ids must be unique")
		}
		if _, err := s.Delete(ctx, second.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		third, _ := s.Create(ctx, "three", "")
		if third.ID == second.ID || third.ID == first.ID {
			t.Errorf("id %d was reused", third.ID)
		}
	})

	t.Run("list ordering filter and paging", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var ids []domain.ID
		for _, title := range []string{"a", "b", "c", "d"} {
			td, err := s.Create(ctx, title, "")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ids = append(ids, td.ID)
		}
		done := true
		if _, err := s.Update(ctx, ids[1], domain.Patch{Completed: &done}); err != nil {
			t.Fatalf("update: %v", err)
		}

		all, err := s.List(ctx, domain.ListFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 todos, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].CreatedAt.Before(all[i].CreatedAt) {
				t.Errorf("list not newest first at %d", i)
			}
		}
		if all[0].Title != "d" || all[3].Title != "a" {
			t.Errorf("unexpected order %q..%q", all[0].Title, all[3].Title)
		}

		completed, err := s.List(ctx, domain.ListFilter{Completed: &done})
		if err != nil {
			t.Fatalf("list completed: %v", err)
		}
		if len(completed) != 1 || completed[0].ID != ids[1] {
			t.Errorf("unexpected completed list %+v", completed)
		}

		pending := false
		open, _ := s.List(ctx, domain.ListFilter{Completed: &pending})
		if len(open) != 3 {
			t.Errorf("expected 3 pending, got %d", len(open))
		}

		limit, offset := 2, 1
		page, err := s.List(ctx, domain.ListFilter{Limit: &limit, Offset: &offset})
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		if len(page) != 2 || page[0].Title != "c" || page[1].Title != "b" {
			t.Errorf("unexpected page %+v", page)
		}

		skip := 3
		tail, err := s.List(ctx, domain.ListFilter{Offset: &skip})
		if err != nil {
			t.Fatalf("list offset only: %v", err)
		}
		if len(tail) != 1 || tail[0].Title != "a" {
			t.Errorf("unexpected offset-only page %+v", tail)
		}

		onlyOffset := 10
		empty, err := s.List(ctx, domain.ListFilter{Offset: &onlyOffset})
		if err != nil {
			t.Fatalf("list beyond end: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", empty)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, _ := s.Create(ctx, "Title", "Desc")
		title := "New title"
		updated, err := s.Update(ctx, created.ID, domain.Patch{Title: &title})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Title != "New title" || updated.Description != "Desc" || updated.Completed {
			t.Errorf("unexpected todo %+v", updated)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Errorf("updated_at %v should be after %v", updated.UpdatedAt, created.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Error("created_at must not change")
		}

		again, err := s.Update(ctx, created.ID, domain.Patch{})
		if err != nil {
			t.Fatalf("empty update: %v", err)
		}
		if !again.UpdatedAt.After(updated.UpdatedAt) {
			t.Error("empty update should still refresh updated_at")
		}

		if _, err := s.Update(ctx, created.ID+1000, domain.Patch{}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete echoes prior row", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, _ := s.Create(ctx, "Gone soon", "bye")
		deleted, err := s.Delete(ctx, created.ID)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if deleted.ID != created.ID || deleted.Title != "Gone soon" || deleted.Description != "bye" {
			t.Errorf("unexpected deleted row %+v", deleted)
		}
		if _, err := s.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, title := range []string{"x", "y", "z"} {
			if _, err := s.Create(ctx, title, ""); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		list, _ := s.List(ctx, domain.ListFilter{})
		done := true
		if _, err := s.Update(ctx, list[0].ID, domain.Patch{Completed: &done}); err != nil {
			t.Fatalf("update: %v", err)
		}

		start, end := domain.DayBounds(list[0].CreatedAt)
		st, err := s.Stats(ctx, start, end)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		want := domain.Stats{Total: 3, Completed: 1, Pending: 2, Today: 3}
		if st != want {
			t.Errorf("expected %+v, got %+v", want, st)
		}

		st, err = s.Stats(ctx, start.AddDate(0, 0, -1), start)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if st.Today != 0 {
			t.Errorf("expected 0 created yesterday, got %d", st.Today)
		}
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		at, err := s.Ping(context.Background())
		if err != nil {
			t.Fatalf("ping: %v", err)
		}
		if at.IsZero() {
			t.Error("expected server time")
		}
	})
}

// stepClock advances by one millisecond on every reading.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

package todo

import (
	"reflect"
	"strings"
	"testing"
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestBuildListQuery(t *testing.T) {
	const base = "SELECT id, title, description, completed, created_at, updated_at FROM todos"
	const order = " ORDER BY created_at DESC, id DESC"

	tests := []struct {
		name     string
		filter   domain.ListFilter
		ph       Placeholder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  domain.ListFilter{},
			wantSQL: base + order,
		},
		{
			name:     "completed only",
			filter:   domain.ListFilter{Completed: boolPtr(true)},
			wantSQL:  base + " WHERE completed = $1" + order,
			wantArgs: []any{true},
		},
		{
			name:     "limit only",
			filter:   domain.ListFilter{Limit: intPtr(10)},
			wantSQL:  base + order + " LIMIT $1",
			wantArgs: []any{10},
		},
		{
			name:     "offset only",
			filter:   domain.ListFilter{Offset: intPtr(5)},
			wantSQL:  base + order + " OFFSET $1",
			wantArgs: []any{5},
		},
		{
			name:     "all parameters",
			filter:   domain.ListFilter{Completed: boolPtr(false), Limit: intPtr(20), Offset: intPtr(40)},
			wantSQL:  base + " WHERE completed = $1" + order + " LIMIT $2 OFFSET $3",
			wantArgs: []any{false, 20, 40},
		},
		{
			name:     "question placeholders",
			filter:   domain.ListFilter{Completed: boolPtr(true), Limit: intPtr(1)},
			ph:       Question,
			wantSQL:  base + " WHERE completed = ?" + order + " LIMIT ?",
			wantArgs: []any{true, 1},
		},
		{
			name:     "question placeholders offset only",
			filter:   domain.ListFilter{Offset: intPtr(1)},
			ph:       Question,
			wantSQL:  base + order + " LIMIT -1 OFFSET ?",
			wantArgs: []any{1},
		},
		{
			name:     "question placeholders completed and offset",
			filter:   domain.ListFilter{Completed: boolPtr(false), Offset: intPtr(3)},
			ph:       Question,
			wantSQL:  base + " WHERE completed = ?" + order + " LIMIT -1 OFFSET ?",
			wantArgs: []any{false, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildListQuery(tt.filter, tt.ph)
			if q.SQL != tt.wantSQL {
				t.Errorf("sql mismatch\n got: %s\nwant: %s", q.SQL, tt.wantSQL)
			}
			if len(q.Args) != len(tt.wantArgs) {
				t.Fatalf("expected %d args, got %d", len(tt.wantArgs), len(q.Args))
			}
			if len(tt.wantArgs) > 0 && !reflect.DeepEqual(q.Args, tt.wantArgs) {
				t.Errorf("expected args %v, got %v", tt.wantArgs, q.Args)
			}
		})
	}
}

func TestBuildUpdateQuery(t *testing.T) {
	patch := domain.Patch{Title: strPtr("new"), Completed: boolPtr(true)}

	q := BuildUpdateQuery(7, patch, time.Time{}, Dollar)

	if !strings.Contains(q.SQL, "title = COALESCE($1, title)") ||
		!strings.Contains(q.SQL, "description = COALESCE($2, description)") ||
		!strings.Contains(q.SQL, "completed = COALESCE($3, completed)") {
		t.Errorf("unexpected set clause: %s", q.SQL)
	}
	if !strings.Contains(q.SQL, "updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')") {
		t.Errorf("expected database clock refresh: %s", q.SQL)
	}
	if !strings.HasSuffix(q.SQL, "WHERE id = $4 RETURNING id, title, description, completed, created_at, updated_at") {
		t.Errorf("unexpected tail: %s", q.SQL)
	}
	if len(q.Args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(q.Args))
	}
	if q.Args[1].(*string) != nil {
		t.Error("unset description should bind nil")
	}
	if q.Args[3] != int64(7) {
		t.Errorf("expected id arg 7, got %v", q.Args[3])
	}
}

func TestBuildUpdateQuery_BoundClock(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	q := BuildUpdateQuery(3, domain.Patch{}, now, Question)

	if strings.Contains(q.SQL, "GREATEST") {
		t.Errorf("bound clock should not use database time: %s", q.SQL)
	}
	if strings.Count(q.SQL, "?") != 5 {
		t.Errorf("expected 5 placeholders: %s", q.SQL)
	}
	if q.Args[3] != now {
		t.Errorf("expected clock arg, got %v", q.Args[3])
	}
}

func TestBuildDeleteQuery(t *testing.T) {
	q := BuildDeleteQuery(12, Dollar)

	want := "DELETE FROM todos WHERE id = $1 RETURNING id, title, description, completed, created_at, updated_at"
	if q.SQL != want {
		t.Errorf("expected %q, got %q", want, q.SQL)
	}
	if !reflect.DeepEqual(q.Args, []any{int64(12)}) {
		t.Errorf("unexpected args %v", q.Args)
	}
}

func TestBuildStatsQuery(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	q := BuildStatsQuery(start, end, Dollar)

	if !strings.Contains(q.SQL, "created_at >= $1 AND created_at < $2") {
		t.Errorf("unexpected today window: %s", q.SQL)
	}
	if !reflect.DeepEqual(q.Args, []any{start, end}) {
		t.Errorf("unexpected args %v", q.Args)
	}
}

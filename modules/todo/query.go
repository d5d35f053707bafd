package todo

import (
	"strconv"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

// Placeholder selects the bind parameter syntax of a SQL dialect.
type Placeholder int

const (
	// Dollar numbers parameters $1, $2, ... (PostgreSQL).
	Dollar Placeholder = iota
	// Question uses ? for every parameter (SQLite).
	Question
)

func (p Placeholder) format(n int) string {
	if p == Question {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

const todoColumns = "id, title, description, completed, created_at, updated_at"

// Query is a statement with its bind arguments in placeholder order.
type Query struct {
	SQL  string
	Args []any
}

type queryBuilder struct {
	sb   strings.Builder
	args []any
	ph   Placeholder
}

func (b *queryBuilder) write(s string) {
	b.sb.WriteString(s)
}

func (b *queryBuilder) bind(v any) {
	b.args = append(b.args, v)
	b.sb.WriteString(b.ph.format(len(b.args)))
}

func (b *queryBuilder) build() Query {
	return Query{SQL: b.sb.String(), Args: b.args}
}

// BuildListQuery builds the filtered, newest-first list statement. LIMIT and
// OFFSET are appended in that order only when set, except that an offset alone
// gets LIMIT -1 in the SQLite dialect.
func BuildListQuery(f domain.ListFilter, ph Placeholder) Query {
	b := &queryBuilder{ph: ph}
	b.write("SELECT " + todoColumns + " FROM todos")

	if f.Completed != nil {
		b.write(" WHERE completed = ")
		b.bind(*f.Completed)
	}

	b.write(" ORDER BY created_at DESC, id DESC")

	if f.Limit != nil {
		b.write(" LIMIT ")
		b.bind(*f.Limit)
	} else if f.Offset != nil && ph == Question {
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
		b.write(" LIMIT -1")
	}
	if f.Offset != nil {
		b.write(" OFFSET ")
		b.bind(*f.Offset)
	}

	return b.build()
}

// BuildUpdateQuery builds the atomic partial update. Nil patch fields bind
// NULL and COALESCE keeps the stored value. With a zero now, updated_at is
// refreshed by the database clock and always moves forward.
func BuildUpdateQuery(id domain.ID, p domain.Patch, now time.Time, ph Placeholder) Query {
	b := &queryBuilder{ph: ph}
	b.write("UPDATE todos SET title = COALESCE(")
	b.bind(p.Title)
	b.write(", title), description = COALESCE(")
	b.bind(p.Description)
	b.write(", description), completed = COALESCE(")
	b.bind(p.Completed)
	b.write(", completed), updated_at = ")
	if now.IsZero() {
		b.write("GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')")
	} else {
		b.bind(now)
	}
	b.write(" WHERE id = ")
	b.bind(int64(id))
	b.write(" RETURNING " + todoColumns)
	return b.build()
}

// BuildDeleteQuery builds the atomic delete that echoes the removed row.
func BuildDeleteQuery(id domain.ID, ph Placeholder) Query {
	b := &queryBuilder{ph: ph}
	b.write("DELETE FROM todos WHERE id = ")
	b.bind(int64(id))
	b.write(" RETURNING " + todoColumns)
	return b.build()
}

// BuildStatsQuery builds the single-pass aggregate. Today counts rows created
// in [dayStart, dayEnd).
func BuildStatsQuery(dayStart, dayEnd time.Time, ph Placeholder) Query {
	b := &queryBuilder{ph: ph}
	b.write("SELECT COUNT(*) AS total, " +
		"COUNT(CASE WHEN completed THEN 1 END) AS completed, " +
		"COUNT(CASE WHEN NOT completed THEN 1 END) AS pending, " +
		"COUNT(CASE WHEN created_at >= ")
	b.bind(dayStart)
	b.write(" AND created_at < ")
	b.bind(dayEnd)
	b.write(" THEN 1 END) AS today FROM todos")
	return b.build()
}

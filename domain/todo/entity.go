// Package todo holds the todo entity, its identifier and the store port.
package todo

import (
	"strconv"
	"time"
)

// MaxTitleLength is the longest title accepted, counted in characters.
const MaxTitleLength = 255

// MaxListLimit bounds the limit query parameter on list requests.
const MaxListLimit = 500

// ID identifies a stored todo. Valid identifiers are positive.
type ID int64

// ParseID converts a path segment into an ID. Only a plain run of decimal
// digits naming a positive int64 is accepted.
func ParseID(s string) (ID, error) {
	if s == "" {
		return 0, InvalidArgument("todo id is required")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, InvalidArgument("todo id %q must be a positive integer", s)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, InvalidArgument("todo id %q must be a positive integer", s)
	}
	return ID(n), nil
}

// Valid reports whether id could have been assigned by a store.
func (id ID) Valid() bool {
	return id > 0
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Todo is a single task record.
type Todo struct {
	ID          ID        `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" db:"title" gorm:"size:255;not null"`
	Description string    `json:"description" db:"description" gorm:"not null;default:''"`
	Completed   bool      `json:"completed" db:"completed" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"not null;index"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" gorm:"not null"`
}

// TableName pins the table name for GORM.
func (Todo) TableName() string {
	return "todos"
}

// CreateInput carries the fields accepted when creating a todo.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// ListFilter narrows and pages a list request. Nil fields are not applied.
type ListFilter struct {
	Completed *bool `json:"completed,omitempty"`
	Limit     *int  `json:"limit,omitempty"`
	Offset    *int  `json:"offset,omitempty"`
}

// Stats are aggregate counts over all todos.
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Today     int64 `json:"today"`
}

// DayBounds returns the half-open interval [start, end) of the calendar day
// containing t, in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

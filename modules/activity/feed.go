package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is how many entries a Feed keeps when none is given.
const DefaultCapacity = 100

// Entry is one recorded todo change.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TodoID    int64     `json:"todo_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is a bounded, newest-first log of entries safe for concurrent use.
type Feed struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record appends an entry, dropping the oldest once full.
func (f *Feed) Record(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) == f.capacity {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, e)
	return e
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, f.entries[i])
	}
	return out
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

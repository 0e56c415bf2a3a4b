package querycache

import (
	"context"
	"strings"
	"time"
)

// Key is an ordered tuple such as {"product", "5"}; it renders as "product:5".
type Key []string

func (k Key) String() string {
	return strings.Join(k, ":")
}

// Family is the first element, used to label metrics.
func (k Key) Family() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// Query binds a key to the function that loads it and its freshness window.
// A zero StaleTime means the value is stale as soon as it is written.
type Query[T any] struct {
	Key       Key
	Fetch     func(ctx context.Context) (T, error)
	StaleTime time.Duration
}

func (q Query[T]) fetcher() fetchFunc {
	return func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is the observable state of one entry.
type Snapshot struct {
	Key       string
	Data      any
	HasData   bool
	Status    Status
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool

	// Invalidated is set while Data predates the last Invalidate and no fetch has replaced it.
	Invalidated bool

	version uint64
}

// Data extracts the typed value of a snapshot.
func Data[T any](s Snapshot) (T, bool) {
	var zero T
	if !s.HasData {
		return zero, false
	}
	v, ok := s.Data.(T)
	return v, ok
}

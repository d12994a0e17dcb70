package attendance

import (
	"context"
	"time"

	domain "dojo/internal/domain/attendance"
)

// Store persists attendance marks.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Record, error)
	Save(ctx context.Context, value domain.Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Record, error)
}

// ListFilter narrows List. From and To are inclusive calendar dates; zero
// values leave that side open. Empty IDs match everything.
type ListFilter struct {
	From      time.Time
	To        time.Time
	ClassID   string
	StudentID string
}

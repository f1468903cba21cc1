package schedule

import (
	"context"

	"github.com/google/uuid"
)

type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Item, int, error)
	Update(ctx context.Context, item *Item) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ListActive returns every active schedule joined with its active owning
	// item. A nil userID means all users (the trusted scheduler path).
	ListActive(ctx context.Context, userID *uuid.UUID) ([]*ActiveSchedule, error)
}

package run

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List and Count. Zero fields match everything.
type Filter struct {
	BatchID uuid.UUID
	Website string
	Status  Status
}

type Store interface {
	Create(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Run, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Complete(ctx context.Context, id uuid.UUID, res Result) error
}

type UpdateSetter func(*Run) error

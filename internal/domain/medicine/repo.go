package medicine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("medicine not found")
	ErrDuplicate = errors.New("medicine with this fda_id already exists")
)

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	GetByFDAID(ctx context.Context, fdaID string) (*Medicine, error)
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	// GetOrCreateByFDAID returns the medicine keyed by fdaID, inserting it
	// from d when absent. created reports whether this call inserted it.
	GetOrCreateByFDAID(ctx context.Context, fdaID string, d Defaults) (m *Medicine, created bool, err error)

	// ListStale returns up to limit label-backed medicines last updated
	// before olderThan, oldest first.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Medicine, error)
	UpdateLabel(ctx context.Context, id uuid.UUID, name string, description *string) error
	Touch(ctx context.Context, id uuid.UUID) error
}

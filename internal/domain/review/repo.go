package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("user has already reviewed this medicine")
	// ErrReferenceNotFound is returned by Create when the user or medicine
	// row disappeared between validation and insert.
	ErrReferenceNotFound = errors.New("user or medicine not found")
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	List(ctx context.Context, limit, offset int) ([]*Review, int, error)
	// ListByMedicine returns the medicine's reviews, newest first.
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error)
}

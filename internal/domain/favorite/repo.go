package favorite

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("favorite not found")
	ErrAlreadyFavorited  = errors.New("medicine already in favorites")
	ErrReferenceNotFound = errors.New("user or medicine not found")
)

type Repository interface {
	Create(ctx context.Context, f *Favorite) error
	GetByID(ctx context.Context, id uuid.UUID) (*Favorite, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Favorite, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

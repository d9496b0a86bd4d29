package favorite

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medreview/medreview/internal/domain/identity"
	"github.com/medreview/medreview/internal/domain/medicine"
	"github.com/medreview/medreview/pkg/apperr"
)

type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type MedicineGetter interface {
	GetMedicine(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMedicineNotFound = errors.New("medicine not found")
)

type Service struct {
	repo      Repository
	users     UserGetter
	medicines MedicineGetter
}

func NewService(repo Repository, users UserGetter, medicines MedicineGetter) *Service {
	return &Service{repo: repo, users: users, medicines: medicines}
}

func (s *Service) AddFavorite(ctx context.Context, f *Favorite) error {
	if f.UserID == uuid.Nil {
		return apperr.Invalid("user_id is required")
	}
	if f.MedicineID == uuid.Nil {
		return apperr.Invalid("medicine_id is required")
	}
	if _, err := s.users.GetUser(ctx, f.UserID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.medicines.GetMedicine(ctx, f.MedicineID); err != nil {
		if errors.Is(err, medicine.ErrNotFound) {
			return ErrMedicineNotFound
		}
		return err
	}
	return s.repo.Create(ctx, f)
}

func (s *Service) GetFavorite(ctx context.Context, id uuid.UUID) (*Favorite, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForUser returns an empty list for users with no favorites, including
// unknown users.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Favorite, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) RemoveFavorite(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

package review

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/domain/identity"
	"github.com/medreview/medreview/internal/domain/medicine"
	"github.com/medreview/medreview/pkg/apperr"
)

// UserGetter and MedicineGetter are satisfied by the identity and medicine
// services.
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
	scorer    SentimentScorer
	logger    zerolog.Logger
}

func NewService(repo Repository, users UserGetter, medicines MedicineGetter, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		medicines: medicines,
		logger:    logger.With().Str("component", "review").Logger(),
	}
}

// SetSentimentScorer enables scoring of reviews submitted without a score.
func (s *Service) SetSentimentScorer(scorer SentimentScorer) {
	s.scorer = scorer
}

func validate(r *Review) error {
	if r.UserID == uuid.Nil {
		return apperr.Invalid("user_id is required")
	}
	if r.MedicineID == uuid.Nil {
		return apperr.Invalid("medicine_id is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return apperr.Invalid("rating must be between %d and %d", MinRating, MaxRating)
	}
	r.Comment = strings.TrimSpace(r.Comment)
	if r.Comment == "" {
		return apperr.Invalid("comment cannot be empty")
	}
	if r.SentimentScore != nil && (*r.SentimentScore < -1 || *r.SentimentScore > 1) {
		return apperr.Invalid("sentiment_score must be between -1 and 1")
	}
	return nil
}

func (s *Service) CreateReview(ctx context.Context, r *Review) error {
	if err := validate(r); err != nil {
		return err
	}
	if err := s.userExists(ctx, r.UserID); err != nil {
		return err
	}
	if err := s.medicineExists(ctx, r.MedicineID); err != nil {
		return err
	}

	if r.SentimentScore == nil && s.scorer != nil {
		score, err := s.scorer.Score(ctx, r.Comment)
		if err != nil {
			s.logger.Warn().Err(err).Msg("sentiment scoring failed")
		} else {
			r.SentimentScore = &score
		}
	}
	return s.repo.Create(ctx, r)
}

func (s *Service) GetReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListReviews(ctx context.Context, limit, offset int) ([]*Review, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListByMedicine returns reviews newest first without checking that the
// medicine exists.
func (s *Service) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Review, error) {
	return s.repo.ListByMedicine(ctx, medicineID)
}

func (s *Service) ListForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Review, error) {
	if err := s.medicineExists(ctx, medicineID); err != nil {
		return nil, err
	}
	return s.repo.ListByMedicine(ctx, medicineID)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Review, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) userExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.users.GetUser(ctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) medicineExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.medicines.GetMedicine(ctx, id)
	if errors.Is(err, medicine.ErrNotFound) {
		return ErrMedicineNotFound
	}
	return err
}

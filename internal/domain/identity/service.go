package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/medreview/medreview/internal/platform/db"
	"github.com/medreview/medreview/pkg/apperr"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)
)

type Service struct {
	users    UserRepository
	profiles ProfileRepository
	medical  MedicalDataRepository
	tx       db.TxBeginner
}

// NewService wires the identity repositories. tx may be nil, in which case
// profile creation is not wrapped in a transaction.
func NewService(users UserRepository, profiles ProfileRepository, medical MedicalDataRepository, tx db.TxBeginner) *Service {
	return &Service{users: users, profiles: profiles, medical: medical, tx: tx}
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.tx, fn)
}

// -- Users --

func (s *Service) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return apperr.Invalid("email is required")
	}
	if !emailPattern.MatchString(u.Email) {
		return apperr.Invalid("invalid email format")
	}
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// -- Profiles --

func validateProfile(p *Profile) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return apperr.Invalid("first_name is required")
	}
	if p.LastName == "" {
		return apperr.Invalid("last_name is required")
	}
	if p.Age < 0 || p.Age > 120 {
		return apperr.Invalid("age must be between 0 and 120")
	}
	if strings.TrimSpace(p.Gender) == "" {
		return apperr.Invalid("gender is required")
	}
	if p.Phone != nil && !phonePattern.MatchString(*p.Phone) {
		return apperr.Invalid("invalid phone number format")
	}
	return nil
}

// CreateProfile creates the user's profile together with an empty medical
// data record.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, p *Profile) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	p.UserID = userID

	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
			return ErrProfileExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.profiles.Create(ctx, p); err != nil {
			return err
		}
		if err := s.medical.Create(ctx, &MedicalData{ProfileID: p.ID}); err != nil {
			return fmt.Errorf("create medical data: %w", err)
		}
		return nil
	})
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, p *Profile) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	return s.profiles.Update(ctx, p)
}

// -- Medical data --

func (s *Service) GetMedicalData(ctx context.Context, profileID uuid.UUID) (*MedicalData, error) {
	return s.medical.GetByProfileID(ctx, profileID)
}

// UpdateMedicalData replaces the medical data of m.ProfileID.
func (s *Service) UpdateMedicalData(ctx context.Context, m *MedicalData) error {
	m.Allergies = trimmed(m.Allergies)
	m.Conditions = trimmed(m.Conditions)
	m.PreferredMedicationType = trimmed(m.PreferredMedicationType)
	return s.medical.Update(ctx, m)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

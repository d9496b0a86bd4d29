package medicine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medreview/medreview/internal/platform/openfda"
	"github.com/medreview/medreview/pkg/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Invalid("name is required")
	}
	m.Description = blankToNil(m.Description)
	m.FDAID = blankToNil(m.FDAID)
	return s.repo.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByFDAID(ctx context.Context, fdaID string) (*Medicine, error) {
	return s.repo.GetByFDAID(ctx, fdaID)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) GetOrCreateByFDAID(ctx context.Context, fdaID string, d Defaults) (*Medicine, bool, error) {
	fdaID = strings.TrimSpace(fdaID)
	if fdaID == "" {
		return nil, false, apperr.Invalid("fda_id is required")
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, false, apperr.Invalid("name is required")
	}
	d.Description = blankToNil(d.Description)
	return s.repo.GetOrCreateByFDAID(ctx, fdaID, d)
}

// DefaultsFromLabel derives the local name and description of a label.
// Generic names are lower-cased; a brand name is kept as printed. fallback
// is used when the label names neither.
func DefaultsFromLabel(label *openfda.Label, fallback string) Defaults {
	name := strings.ToLower(strings.TrimSpace(firstOf(label.OpenFDA.GenericName)))
	if name == "" {
		name = strings.TrimSpace(firstOf(label.OpenFDA.BrandName))
	}
	if name == "" {
		name = strings.TrimSpace(fallback)
	}
	desc := strings.TrimSpace(label.Indication())
	return Defaults{Name: name, Description: blankToNil(&desc)}
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

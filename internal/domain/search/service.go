package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/domain/identity"
	"github.com/medreview/medreview/internal/domain/medicine"
	"github.com/medreview/medreview/internal/domain/review"
	"github.com/medreview/medreview/internal/platform/blobstore"
	"github.com/medreview/medreview/internal/platform/metrics"
	"github.com/medreview/medreview/internal/platform/openfda"
)

// PatientStore is satisfied by *identity.Service.
type PatientStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*identity.Profile, error)
	GetMedicalData(ctx context.Context, profileID uuid.UUID) (*identity.MedicalData, error)
}

// MedicineStore is satisfied by *medicine.Service.
type MedicineStore interface {
	GetOrCreateByFDAID(ctx context.Context, fdaID string, d medicine.Defaults) (*medicine.Medicine, bool, error)
	GetByFDAID(ctx context.Context, fdaID string) (*medicine.Medicine, error)
}

// ReviewStore is satisfied by *review.Service.
type ReviewStore interface {
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*review.Review, error)
}

// LabelLookup is satisfied by *openfda.Client.
type LabelLookup interface {
	FindByGenericName(ctx context.Context, name string) (*openfda.Label, bool)
}

// Query is a search input. Image takes precedence over Text when both are set.
type Query struct {
	Text  string
	Image []byte
}

type MedicineResult struct {
	*medicine.Medicine
	Reviews []*review.Review `json:"reviews"`
}

type Result struct {
	Medicine MedicineResult `json:"medicine"`
	Safety   Verdict        `json:"safety"`
	RawLabel *openfda.Label `json:"raw_label"`
}

const archivePrefix = "search-images"

type Service struct {
	patients  PatientStore
	medicines MedicineStore
	reviews   ReviewStore
	labels    LabelLookup
	reasoner  Reasoner
	archive   blobstore.Store
	logger    zerolog.Logger
}

func NewService(patients PatientStore, medicines MedicineStore, reviews ReviewStore, labels LabelLookup, reasoner Reasoner, logger zerolog.Logger) *Service {
	return &Service{
		patients:  patients,
		medicines: medicines,
		reviews:   reviews,
		labels:    labels,
		reasoner:  reasoner,
		logger:    logger.With().Str("component", "search").Logger(),
	}
}

// SetImageArchive stores uploaded search images in store before extraction.
func (s *Service) SetImageArchive(store blobstore.Store) {
	s.archive = store
}

func (s *Service) Search(ctx context.Context, userID uuid.UUID, q Query) (*Result, error) {
	res, err := s.search(ctx, userID, q)
	metrics.SearchTotal.WithLabelValues(outcomeOf(err)).Inc()
	return res, err
}

func (s *Service) search(ctx context.Context, userID uuid.UUID, q Query) (*Result, error) {
	log := s.logger.With().Str("user_id", userID.String()).Logger()

	patient, err := s.patientContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	name, err := s.extract(ctx, userID, q)
	observeStage("extract", start)
	if err != nil {
		log.Info().Err(err).Msg("medicine name extraction failed")
		return nil, err
	}

	start = time.Now()
	label, found := s.labels.FindByGenericName(ctx, name)
	observeStage("lookup", start)
	if !found || label == nil || strings.TrimSpace(label.ID) == "" {
		log.Info().Str("generic_name", name).Msg("no label found")
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, name)
	}

	start = time.Now()
	med, err := s.upsertMedicine(ctx, label, name)
	if err != nil {
		observeStage("upsert", start)
		log.Error().Err(err).Str("fda_id", label.ID).Msg("medicine upsert failed")
		return nil, fmt.Errorf("%w: %w", ErrMedicineUpsertFailed, err)
	}
	reviews, err := s.reviews.ListByMedicine(ctx, med.ID)
	observeStage("upsert", start)
	if err != nil {
		log.Error().Err(err).Str("medicine_id", med.ID.String()).Msg("listing reviews failed")
		return nil, fmt.Errorf("%w: %w", ErrMedicineUpsertFailed, err)
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}

	start = time.Now()
	verdict := s.reasoner.Assess(ctx, label, patient)
	observeStage("assess", start)
	metrics.VerdictTotal.WithLabelValues(verdictResult(verdict)).Inc()

	log.Info().
		Str("generic_name", name).
		Str("fda_id", label.ID).
		Bool("can_take", verdict.CanTake).
		Msg("search completed")

	return &Result{
		Medicine: MedicineResult{Medicine: med, Reviews: reviews},
		Safety:   verdict,
		RawLabel: label,
	}, nil
}

// patientContext loads the patient's profile and medical data. Only a missing
// user is an error.
func (s *Service) patientContext(ctx context.Context, userID uuid.UUID) (PatientContext, error) {
	if _, err := s.patients.GetUser(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return PatientContext{}, ErrPatientNotFound
		}
		return PatientContext{}, err
	}

	profile, err := s.patients.GetProfileByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			return PatientContext{}, err
		}
		return NewPatientContext(nil, nil), nil
	}
	md, err := s.patients.GetMedicalData(ctx, profile.ID)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			return PatientContext{}, err
		}
		md = nil
	}
	return NewPatientContext(profile, md), nil
}

func (s *Service) extract(ctx context.Context, userID uuid.UUID, q Query) (string, error) {
	if len(q.Image) > 0 {
		s.archiveImage(ctx, userID, q.Image)
		return s.reasoner.ExtractFromImage(ctx, q.Image)
	}
	if strings.TrimSpace(q.Text) == "" {
		return "", fmt.Errorf("%w: query or image is required", ErrInvalidInput)
	}
	return s.reasoner.ExtractFromText(ctx, q.Text)
}

// archiveImage is best effort; failures are logged.
func (s *Service) archiveImage(ctx context.Context, userID uuid.UUID, data []byte) {
	if s.archive == nil {
		return
	}
	contentType, err := detectImage(data)
	if err != nil {
		return
	}
	if err := blobstore.Validate(contentType, data); err != nil {
		s.logger.Warn().Err(err).Msg("search image not archived")
		return
	}
	key := blobstore.NewKey(archivePrefix, userID.String(), contentType)
	if _, err := s.archive.Put(ctx, key, contentType, data); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("search image archive failed")
	}
}

func (s *Service) upsertMedicine(ctx context.Context, label *openfda.Label, name string) (*medicine.Medicine, error) {
	med, _, err := s.medicines.GetOrCreateByFDAID(ctx, label.ID, medicine.DefaultsFromLabel(label, name))
	if errors.Is(err, medicine.ErrDuplicate) {
		return s.medicines.GetByFDAID(ctx, label.ID)
	}
	return med, err
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPatientNotFound):
		return "patient_not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrLookupFailed):
		return "lookup_failed"
	case errors.Is(err, ErrMedicineUpsertFailed):
		return "upsert_failed"
	default:
		return "error"
	}
}

func verdictResult(v Verdict) string {
	switch {
	case v.CanTake:
		return "safe"
	case v.Warning != nil && strings.HasPrefix(*v.Warning, "Error analyzing medicine safety"):
		return "degraded"
	default:
		return "warning"
	}
}

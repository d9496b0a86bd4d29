package medicine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medreview/medreview/internal/platform/openfda"
	"github.com/medreview/medreview/pkg/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*Medicine
	touched   []uuid.UUID
	listErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockRepo) byFDAID(fdaID string) *Medicine {
	for _, med := range m.medicines {
		if med.FDAID != nil && *med.FDAID == fdaID {
			return med
		}
	}
	return nil
}

func (m *mockRepo) Create(_ context.Context, med *Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if med.FDAID != nil && m.byFDAID(*med.FDAID) != nil {
		return ErrDuplicate
	}
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = med.CreatedAt
	cp := *med
	m.medicines[med.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicines[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *med
	return &cp, nil
}

func (m *mockRepo) GetByFDAID(_ context.Context, fdaID string) (*Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	med := m.byFDAID(fdaID)
	if med == nil {
		return nil, ErrNotFound
	}
	cp := *med
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Medicine, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var result []*Medicine
	for _, med := range m.medicines {
		result = append(result, med)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	total := len(result)
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockRepo) GetOrCreateByFDAID(_ context.Context, fdaID string, d Defaults) (*Medicine, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if med := m.byFDAID(fdaID); med != nil {
		cp := *med
		return &cp, false, nil
	}
	id := fdaID
	med := &Medicine{ID: uuid.New(), Name: d.Name, Description: d.Description, FDAID: &id, CreatedAt: time.Now()}
	med.UpdatedAt = med.CreatedAt
	m.medicines[med.ID] = med
	cp := *med
	return &cp, true, nil
}

func (m *mockRepo) ListStale(_ context.Context, olderThan time.Time, limit int) ([]*Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*Medicine
	for _, med := range m.medicines {
		if med.FDAID != nil && med.UpdatedAt.Before(olderThan) {
			cp := *med
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepo) UpdateLabel(_ context.Context, id uuid.UUID, name string, description *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicines[id]
	if !ok {
		return ErrNotFound
	}
	med.Name = name
	med.Description = description
	med.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) Touch(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicines[id]
	if !ok {
		return ErrNotFound
	}
	med.UpdatedAt = time.Now()
	m.touched = append(m.touched, id)
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func strPtr(s string) *string { return &s }

func TestService_CreateMedicine(t *testing.T) {
	svc, _ := newTestService()
	m := &Medicine{Name: "  Aspirin ", Description: strPtr("  "), FDAID: strPtr("N012345")}
	if err := svc.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("CreateMedicine() error: %v", err)
	}
	if m.Name != "Aspirin" {
		t.Errorf("expected trimmed name, got %q", m.Name)
	}
	if m.Description != nil {
		t.Error("expected blank description to be dropped")
	}
}

func TestService_CreateMedicine_Validation(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.CreateMedicine(context.Background(), &Medicine{Name: " "}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_CreateMedicine_DuplicateFDAID(t *testing.T) {
	svc, _ := newTestService()
	svc.CreateMedicine(context.Background(), &Medicine{Name: "Aspirin", FDAID: strPtr("N1")})
	err := svc.CreateMedicine(context.Background(), &Medicine{Name: "Aspirin 2", FDAID: strPtr("N1")})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestService_CreateMedicine_WithoutFDAIDNeverCollides(t *testing.T) {
	svc, _ := newTestService()
	for i := 0; i < 2; i++ {
		if err := svc.CreateMedicine(context.Background(), &Medicine{Name: "Home remedy", FDAID: strPtr("")}); err != nil {
			t.Fatalf("CreateMedicine() error: %v", err)
		}
	}
}

func TestService_GetOrCreateByFDAID_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, created, err := svc.GetOrCreateByFDAID(ctx, "123456", Defaults{Name: "ibuprofen"})
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	second, created, err := svc.GetOrCreateByFDAID(ctx, "123456", Defaults{Name: "other"})
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same medicine, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "ibuprofen" {
		t.Errorf("defaults must not overwrite existing row, got %q", second.Name)
	}
	if len(repo.medicines) != 1 {
		t.Errorf("expected 1 medicine row, got %d", len(repo.medicines))
	}
}

func TestService_GetOrCreateByFDAID_Concurrent(t *testing.T) {
	svc, repo := newTestService()

	const n = 16
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _, err := svc.GetOrCreateByFDAID(context.Background(), "123456", Defaults{Name: "ibuprofen"})
			if err != nil {
				t.Errorf("GetOrCreateByFDAID() error: %v", err)
				return
			}
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s, want %s", i, ids[i], ids[0])
		}
	}
	if len(repo.medicines) != 1 {
		t.Errorf("expected 1 medicine row, got %d", len(repo.medicines))
	}
}

func TestService_GetOrCreateByFDAID_Validation(t *testing.T) {
	svc, _ := newTestService()
	if _, _, err := svc.GetOrCreateByFDAID(context.Background(), " ", Defaults{Name: "x"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty fda_id, got %v", err)
	}
	if _, _, err := svc.GetOrCreateByFDAID(context.Background(), "1", Defaults{}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
}

func TestDefaultsFromLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    openfda.Label
		fallback string
		wantName string
		wantDesc *string
	}{
		{
			name: "generic name lower-cased",
			label: openfda.Label{
				OpenFDA:             openfda.OpenFDA{GenericName: []string{"IBUPROFEN"}, BrandName: []string{"Advil"}},
				IndicationsAndUsage: []string{"relieves pain", "second"},
			},
			fallback: "ibuprofen",
			wantName: "ibuprofen",
			wantDesc: strPtr("relieves pain"),
		},
		{
			name:     "brand fallback",
			label:    openfda.Label{OpenFDA: openfda.OpenFDA{BrandName: []string{"Tylenol"}}},
			fallback: "acetaminophen",
			wantName: "Tylenol",
		},
		{
			name:     "query fallback",
			label:    openfda.Label{IndicationsAndUsage: []string{" "}},
			fallback: "aspirin",
			wantName: "aspirin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DefaultsFromLabel(&tt.label, tt.fallback)
			if d.Name != tt.wantName {
				t.Errorf("name = %q, want %q", d.Name, tt.wantName)
			}
			switch {
			case tt.wantDesc == nil && d.Description != nil:
				t.Errorf("expected no description, got %q", *d.Description)
			case tt.wantDesc != nil && (d.Description == nil || *d.Description != *tt.wantDesc):
				t.Errorf("description = %v, want %q", d.Description, *tt.wantDesc)
			}
		})
	}
}

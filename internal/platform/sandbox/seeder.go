// Package sandbox generates reproducible demo patients and medicines for
// development databases. Given the same seed it produces the same data, so
// a reseed only fills in what is missing.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/domain/identity"
	"github.com/medreview/medreview/internal/domain/medicine"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	PatientCount         int   `json:"patientCount"`
	AllergiesPerPatient  int   `json:"allergiesPerPatient"`
	ConditionsPerPatient int   `json:"conditionsPerPatient"`
	IncludeMedicines     bool  `json:"includeMedicines"`
	Seed                 int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount:         10,
		AllergiesPerPatient:  1,
		ConditionsPerPatient: 2,
		IncludeMedicines:     true,
		Seed:                 42,
	}
}

// Patient is one generated user with profile and medical data.
type Patient struct {
	Email                   string
	FirstName               string
	LastName                string
	Age                     int
	Gender                  string
	Phone                   string
	Address                 string
	Allergies               []string
	Conditions              []string
	PreferredMedicationType string
}

// DemoMedicine is a locally seeded medicine. Its FDA id carries the
// "sandbox-" prefix so it never collides with a real openFDA label.
type DemoMedicine struct {
	FDAID       string
	Name        string
	Description string
}

// SeedResult summarises a seeding run. Skipped counts records that already
// existed from an earlier run with the same seed.
type SeedResult struct {
	Users     int           `json:"users"`
	Profiles  int           `json:"profiles"`
	Medicines int           `json:"medicines"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

var (
	firstNamesMale = []string{
		"James", "Robert", "John", "Michael", "David", "William", "Richard",
		"Joseph", "Thomas", "Daniel", "Matthew", "Anthony", "Paul", "Andrew",
	}
	firstNamesFemale = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Barbara", "Elizabeth",
		"Susan", "Jessica", "Sarah", "Karen", "Emily", "Laura", "Anna", "Maria",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Wilson", "Anderson",
		"Taylor", "Moore", "Lee", "Walker", "Young", "Nguyen",
	}
	streets = []string{
		"123 Main St", "456 Oak Ave", "789 Elm St", "321 Pine Rd",
		"654 Maple Dr", "987 Cedar Ln", "147 Birch Blvd", "258 Walnut Way",
	}
	cities = []string{
		"Chicago", "Houston", "Phoenix", "San Diego", "Dallas", "Austin",
		"Columbus", "Charlotte",
	}

	allergies = []string{
		"ibuprofen", "penicillin", "aspirin", "sulfonamides", "latex",
		"peanuts", "amoxicillin", "codeine", "shellfish",
	}
	conditions = []string{
		"type 2 diabetes", "hypertension", "asthma", "hyperlipidemia",
		"gastro-esophageal reflux disease", "hypothyroidism", "migraine",
		"chronic kidney disease", "insomnia", "allergic rhinitis",
	}
	medicationTypes = []string{"tablet", "capsule", "liquid", "injection", ""}

	demoMedicines = []DemoMedicine{
		{"sandbox-metformin", "metformin", "Biguanide used to lower blood glucose in type 2 diabetes."},
		{"sandbox-lisinopril", "lisinopril", "ACE inhibitor for hypertension and heart failure."},
		{"sandbox-atorvastatin", "atorvastatin", "Statin that lowers LDL cholesterol."},
		{"sandbox-omeprazole", "omeprazole", "Proton pump inhibitor for acid reflux."},
		{"sandbox-amoxicillin", "amoxicillin", "Penicillin-class antibiotic."},
		{"sandbox-levothyroxine", "levothyroxine", "Thyroid hormone replacement."},
		{"sandbox-sertraline", "sertraline", "SSRI antidepressant."},
		{"sandbox-acetaminophen", "acetaminophen", "Analgesic and antipyretic."},
		{"sandbox-ibuprofen", "ibuprofen", "NSAID for pain, fever and inflammation."},
		{"sandbox-montelukast", "montelukast", "Leukotriene receptor antagonist for asthma."},
	}
)

// DataGenerator produces deterministic demo data.
type DataGenerator struct {
	rng     *rand.Rand
	counter int
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen.
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// pickN returns n distinct entries of pool in pool order.
func (g *DataGenerator) pickN(pool []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	idx := g.rng.Perm(len(pool))[:n]
	seen := make(map[int]bool, n)
	for _, i := range idx {
		seen[i] = true
	}
	out := make([]string, 0, n)
	for i, v := range pool {
		if seen[i] {
			out = append(out, v)
		}
	}
	return out
}

func (g *DataGenerator) randomPhone() string {
	return fmt.Sprintf("+1%03d%03d%04d",
		200+g.rng.Intn(800),
		200+g.rng.Intn(800),
		g.rng.Intn(10000),
	)
}

// GeneratePatient produces the next demo patient. Emails are numbered so
// they stay unique within a run.
func (g *DataGenerator) GeneratePatient(allergyCount, conditionCount int) Patient {
	g.counter++
	gender := "female"
	first := g.pick(firstNamesFemale)
	if g.rng.Intn(2) == 0 {
		gender = "male"
		first = g.pick(firstNamesMale)
	}
	last := g.pick(lastNames)

	return Patient{
		Email:                   fmt.Sprintf("%s.%s.%d@demo.medreview.test", strings.ToLower(first), strings.ToLower(last), g.counter),
		FirstName:               first,
		LastName:                last,
		Age:                     18 + g.rng.Intn(70),
		Gender:                  gender,
		Phone:                   g.randomPhone(),
		Address:                 fmt.Sprintf("%s, %s", g.pick(streets), g.pick(cities)),
		Allergies:               g.pickN(allergies, allergyCount),
		Conditions:              g.pickN(conditions, conditionCount),
		PreferredMedicationType: g.pick(medicationTypes),
	}
}

// Generate returns the patients and medicines described by cfg without
// touching storage.
func Generate(cfg SeedConfig) ([]Patient, []DemoMedicine) {
	g := NewDataGenerator(cfg.Seed)
	patients := make([]Patient, 0, cfg.PatientCount)
	for i := 0; i < cfg.PatientCount; i++ {
		patients = append(patients, g.GeneratePatient(cfg.AllergiesPerPatient, cfg.ConditionsPerPatient))
	}
	var meds []DemoMedicine
	if cfg.IncludeMedicines {
		meds = append(meds, demoMedicines...)
	}
	return patients, meds
}

// IdentityWriter is the part of the identity service the seeder writes
// through, so seeded rows pass the same validation as API traffic.
type IdentityWriter interface {
	CreateUser(ctx context.Context, u *identity.User) error
	CreateProfile(ctx context.Context, userID uuid.UUID, p *identity.Profile) error
	UpdateMedicalData(ctx context.Context, m *identity.MedicalData) error
	GetMedicalData(ctx context.Context, profileID uuid.UUID) (*identity.MedicalData, error)
}

type MedicineWriter interface {
	GetOrCreateByFDAID(ctx context.Context, fdaID string, d medicine.Defaults) (*medicine.Medicine, bool, error)
}

type Seeder struct {
	identity  IdentityWriter
	medicines MedicineWriter
	logger    zerolog.Logger
}

func NewSeeder(identity IdentityWriter, medicines MedicineWriter, logger zerolog.Logger) *Seeder {
	return &Seeder{identity: identity, medicines: medicines, logger: logger}
}

// Seed writes the generated data. Patients whose email is already
// registered are skipped, as are medicines that already exist.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	start := time.Now()
	patients, meds := Generate(cfg)
	result := &SeedResult{}

	for _, p := range patients {
		created, err := s.seedPatient(ctx, p)
		if err != nil {
			return result, fmt.Errorf("seed patient %s: %w", p.Email, err)
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Users++
		result.Profiles++
	}

	for _, m := range meds {
		desc := m.Description
		_, created, err := s.medicines.GetOrCreateByFDAID(ctx, m.FDAID, medicine.Defaults{Name: m.Name, Description: &desc})
		if err != nil {
			return result, fmt.Errorf("seed medicine %s: %w", m.Name, err)
		}
		if created {
			result.Medicines++
		} else {
			result.Skipped++
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info().
		Int("users", result.Users).
		Int("medicines", result.Medicines).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("sandbox data seeded")
	return result, nil
}

func (s *Seeder) seedPatient(ctx context.Context, p Patient) (bool, error) {
	u := &identity.User{Email: p.Email}
	if err := s.identity.CreateUser(ctx, u); err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}

	phone, address := p.Phone, p.Address
	profile := &identity.Profile{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     &phone,
		Address:   &address,
	}
	if err := s.identity.CreateProfile(ctx, u.ID, profile); err != nil {
		return false, err
	}

	md, err := s.identity.GetMedicalData(ctx, profile.ID)
	if err != nil {
		return false, err
	}
	md.Allergies = joined(p.Allergies)
	md.Conditions = joined(p.Conditions)
	md.PreferredMedicationType = &p.PreferredMedicationType
	if err := s.identity.UpdateMedicalData(ctx, md); err != nil {
		return false, err
	}
	return true, nil
}

func joined(v []string) *string {
	if len(v) == 0 {
		return nil
	}
	s := strings.Join(v, ", ")
	return &s
}

package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is the patient identity that profiles, reviews and favorites hang off.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile maps to the personal_profiles table. A user has at most one.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Age       int       `db:"age" json:"age"`
	Gender    string    `db:"gender" json:"gender"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MedicalData maps to the medical_data table, one row per profile.
type MedicalData struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	ProfileID               uuid.UUID `db:"profile_id" json:"profile_id"`
	Allergies               *string   `db:"allergies" json:"allergies,omitempty"`
	Conditions              *string   `db:"conditions" json:"conditions,omitempty"`
	PreferredMedicationType *string   `db:"preferred_medication_type" json:"preferred_medication_type,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

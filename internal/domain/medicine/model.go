package medicine

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is the local record of a drug. FDAID is the openFDA label id
// and is unique when set.
type Medicine struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	FDAID       *string   `db:"fda_id" json:"fda_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Defaults populate a medicine created by GetOrCreateByFDAID.
type Defaults struct {
	Name        string
	Description *string
}

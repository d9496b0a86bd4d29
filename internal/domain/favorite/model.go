package favorite

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	MedicineID uuid.UUID `db:"medicine_id" json:"medicine_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

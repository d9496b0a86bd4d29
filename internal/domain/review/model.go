package review

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of a medicine. A user reviews a medicine at
// most once.
type Review struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	MedicineID     uuid.UUID `db:"medicine_id" json:"medicine_id"`
	Rating         int       `db:"rating" json:"rating"`
	Comment        string    `db:"comment" json:"comment"`
	SentimentScore *float64  `db:"sentiment_score" json:"sentiment_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medreview/medreview/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reviewCols = `id, user_id, medicine_id, rating, comment, sentiment_score, created_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.MedicineID, &rv.Rating, &rv.Comment, &rv.SentimentScore, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *repoPG) Create(ctx context.Context, rv *Review) error {
	rv.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO reviews (id, user_id, medicine_id, rating, comment, sentiment_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		rv.ID, rv.UserID, rv.MedicineID, rv.Rating, rv.Comment, rv.SentimentScore,
	).Scan(&rv.CreatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return ErrAlreadyReviewed
	case db.IsForeignKeyViolation(err):
		return ErrReferenceNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	return scanReview(r.conn(ctx).QueryRow(ctx, `SELECT `+reviewCols+` FROM reviews WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Review, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+reviewCols+` FROM reviews ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *repoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Review, error) {
	return r.query(ctx, `SELECT `+reviewCols+` FROM reviews WHERE medicine_id = $1 ORDER BY created_at DESC, id`, medicineID)
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error) {
	return r.query(ctx, `SELECT `+reviewCols+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Review, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rv)
	}
	return items, rows.Err()
}

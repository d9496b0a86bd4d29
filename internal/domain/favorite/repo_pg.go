package favorite

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

const favoriteCols = `id, user_id, medicine_id, created_at`

func (r *repoPG) Create(ctx context.Context, f *Favorite) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO favorites (id, user_id, medicine_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		f.ID, f.UserID, f.MedicineID,
	).Scan(&f.CreatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return ErrAlreadyFavorited
	case db.IsForeignKeyViolation(err):
		return ErrReferenceNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Favorite, error) {
	var f Favorite
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+favoriteCols+` FROM favorites WHERE id = $1`, id).
		Scan(&f.ID, &f.UserID, &f.MedicineID, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Favorite, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+favoriteCols+` FROM favorites WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Favorite{}
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.MedicineID, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &f)
	}
	return items, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

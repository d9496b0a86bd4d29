package identity

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

func connOf(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, email, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := connOf(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2) RETURNING created_at`,
		u.ID, u.Email).Scan(&u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(connOf(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	conn := connOf(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

const profileCols = `id, user_id, first_name, last_name, age, gender, phone, address, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Age, &p.Gender,
		&p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	err := connOf(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO personal_profiles (id, user_id, first_name, last_name, age, gender, phone, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.FirstName, p.LastName, p.Age, p.Gender, p.Phone, p.Address,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return ErrProfileExists
	case db.IsForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(connOf(ctx, r.pool).QueryRow(ctx, `SELECT `+profileCols+` FROM personal_profiles WHERE id = $1`, id))
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return scanProfile(connOf(ctx, r.pool).QueryRow(ctx, `SELECT `+profileCols+` FROM personal_profiles WHERE user_id = $1`, userID))
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	err := connOf(ctx, r.pool).QueryRow(ctx, `
		UPDATE personal_profiles SET first_name=$2, last_name=$3, age=$4, gender=$5,
			phone=$6, address=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING user_id, created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Age, p.Gender, p.Phone, p.Address,
	).Scan(&p.UserID, &p.CreatedAt, &p.UpdatedAt)
	return notFound(err)
}

// =========== Medical Data Repository ===========

type medicalDataRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalDataRepoPG(pool *pgxpool.Pool) MedicalDataRepository {
	return &medicalDataRepoPG{pool: pool}
}

const medicalCols = `id, profile_id, allergies, conditions, preferred_medication_type, created_at, updated_at`

func scanMedicalData(row pgx.Row) (*MedicalData, error) {
	var m MedicalData
	err := row.Scan(&m.ID, &m.ProfileID, &m.Allergies, &m.Conditions, &m.PreferredMedicationType,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *medicalDataRepoPG) Create(ctx context.Context, m *MedicalData) error {
	m.ID = uuid.New()
	return connOf(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_data (id, profile_id, allergies, conditions, preferred_medication_type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		m.ID, m.ProfileID, m.Allergies, m.Conditions, m.PreferredMedicationType,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *medicalDataRepoPG) GetByProfileID(ctx context.Context, profileID uuid.UUID) (*MedicalData, error) {
	return scanMedicalData(connOf(ctx, r.pool).QueryRow(ctx, `SELECT `+medicalCols+` FROM medical_data WHERE profile_id = $1`, profileID))
}

func (r *medicalDataRepoPG) Update(ctx context.Context, m *MedicalData) error {
	err := connOf(ctx, r.pool).QueryRow(ctx, `
		UPDATE medical_data SET allergies=$2, conditions=$3, preferred_medication_type=$4, updated_at=NOW()
		WHERE profile_id = $1
		RETURNING id, created_at, updated_at`,
		m.ProfileID, m.Allergies, m.Conditions, m.PreferredMedicationType,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return notFound(err)
}

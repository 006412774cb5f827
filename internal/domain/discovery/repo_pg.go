package discovery

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rehan0707/DocNear/internal/domain/identity"
	"github.com/Rehan0707/DocNear/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const rosterQuery = `SELECT d.id, p.full_name, p.email, p.phone,
	s.id, s.name, d.experience_years, d.consultation_fee, d.address,
	d.latitude, d.longitude, d.is_available, d.created_at
	FROM doctors d
	JOIN profiles p ON p.id = d.id
	LEFT JOIN specializations s ON s.id = d.specialization_id`

func scanCard(row pgx.Row) (*DoctorCard, error) {
	var (
		c        DoctorCard
		specID   *uuid.UUID
		specName *string
	)
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone,
		&specID, &specName, &c.ExperienceYears, &c.ConsultationFee, &c.Address,
		&c.Latitude, &c.Longitude, &c.IsAvailable, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if specID != nil && specName != nil {
		c.Specialization = &identity.Specialization{ID: *specID, Name: *specName}
	}
	c.Bookable = c.IsAvailable
	return &c, nil
}

func (r *repoPG) ListDoctors(ctx context.Context, specializationID *uuid.UUID) ([]*DoctorCard, error) {
	query := rosterQuery
	var args []interface{}
	if specializationID != nil {
		query += ` WHERE d.specialization_id = $1`
		args = append(args, *specializationID)
	}
	query += ` ORDER BY d.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DoctorCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorCard, error) {
	c, err := scanCard(r.conn(ctx).QueryRow(ctx, rosterQuery+` WHERE d.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrDoctorNotFound
	}
	return c, err
}

func (r *repoPG) ListSpecializations(ctx context.Context) ([]*identity.Specialization, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, created_at FROM specializations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*identity.Specialization
	for rows.Next() {
		var s identity.Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

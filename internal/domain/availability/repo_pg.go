package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *repoPG) Get(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var available bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT is_available FROM doctors WHERE id = $1`, doctorID).Scan(&available)
	if db.IsNoRows(err) {
		return false, ErrDoctorNotFound
	}
	return available, err
}

// Toggle negates in a single statement. Concurrent toggles are not
// coordinated; the last write wins.
func (r *repoPG) Toggle(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var available bool
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET is_available = NOT is_available
		WHERE id = $1
		RETURNING is_available`, doctorID).Scan(&available)
	if db.IsNoRows(err) {
		return false, ErrDoctorNotFound
	}
	return available, err
}

package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const apptCols = `a.id, a.patient_id, a.doctor_id, a.appointment_date, a.appointment_time,
	a.status, a.otp, a.otp_verified, a.symptoms, a.created_at, a.updated_at`

func scanInto(a *Appointment) []interface{} {
	return []interface{}{&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.Status, &a.OTP, &a.OTPVerified, &a.Symptoms, &a.CreatedAt, &a.UpdatedAt}
}

func (r *repoPG) scanOne(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(scanInto(&a)...); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func mapWriteError(err error) error {
	switch db.SQLState(err) {
	case db.CodeDoctorUnavailable:
		return ErrDoctorUnavailable
	case db.CodeImmutableParties:
		return ErrPartiesImmutable
	case db.CodeForeignKeyViolation:
		if strings.Contains(db.Constraint(err), "doctor") {
			return ErrDoctorNotFound
		}
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, appointment_time,
			status, otp, otp_verified, symptoms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Status, a.OTP, a.OTPVerified, a.Symptoms,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapWriteError(err)
}

// CreateDemo marks the transaction as seeding so the availability trigger
// lets the row through.
func (r *repoPG) CreateDemo(ctx context.Context, a *Appointment) error {
	return db.NewTransactor(r.pool).WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `SELECT set_config('docnear.seeding', 'on', true)`); err != nil {
			return fmt.Errorf("mark seeding: %w", err)
		}
		return r.Create(ctx, a)
	})
}

func (r *repoPG) GetForParty(ctx context.Context, id, partyID uuid.UUID) (*Appointment, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+`
		FROM appointments a WHERE a.id = $1 AND (a.patient_id = $2 OR a.doctor_id = $2)`, id, partyID))
}

func (r *repoPG) GetForDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+`
		FROM appointments a WHERE a.id = $1 AND a.doctor_id = $2`, id, doctorID))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, err := r.scanOne(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments a SET status = $3
		WHERE a.id = $1 AND a.status = $2
		RETURNING `+apptCols, id, from, to))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("appointment %s is no longer %s: %w", id, from, ErrInvalidTransition)
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return a, nil
}

func (r *repoPG) MarkOTPVerified(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanOne(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments a SET otp_verified = TRUE
		WHERE a.id = $1 AND a.status = 'confirmed'
		RETURNING `+apptCols, id))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("appointment %s is not confirmed: %w", id, ErrInvalidTransition)
	}
	return a, err
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Listing, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+`, p.full_name, p.phone
		FROM appointments a
		JOIN profiles p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY a.appointment_date ASC, a.appointment_time ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Listing
	for rows.Next() {
		var l Listing
		dest := append(scanInto(&l.Appointment), &l.PatientName, &l.PatientPhone)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Listing, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+`, p.full_name, s.name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN profiles p ON p.id = d.id
		LEFT JOIN specializations s ON s.id = d.specialization_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Listing
	for rows.Next() {
		var l Listing
		dest := append(scanInto(&l.Appointment), &l.DoctorName, &l.Specialization)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *repoPG) FirstPatients(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id FROM patients ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

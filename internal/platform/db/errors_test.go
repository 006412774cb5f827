package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestSQLState(t *testing.T) {
	wrapped := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: CodeDoctorUnavailable})
	if got := SQLState(wrapped); got != CodeDoctorUnavailable {
		t.Errorf("expected %s, got %q", CodeDoctorUnavailable, got)
	}
	if got := SQLState(errors.New("plain")); got != "" {
		t.Errorf("expected empty state for non-pg error, got %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected 23503 not to be a unique violation")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get profile: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(errors.New("boom")) {
		t.Error("expected unrelated error not to match")
	}
}

func TestConstraint(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeForeignKeyViolation, ConstraintName: "appointments_doctor_id_fkey"})
	if got := Constraint(err); got != "appointments_doctor_id_fkey" {
		t.Errorf("unexpected constraint %q", got)
	}
	if Constraint(errors.New("plain")) != "" {
		t.Error("expected empty constraint for non-pg error")
	}
}

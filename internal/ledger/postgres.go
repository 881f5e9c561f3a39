package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxPool is the subset of pgxpool.Pool the ledger uses; pgxmock satisfies it.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLedger stores appointments in the appointments table. Ids are
// assigned under an exclusive table lock so they stay gap-free.
type PostgresLedger struct {
	pool pgxPool
	now  func() time.Time
}

// NewPostgresLedger wraps a pgx pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return newPostgresLedger(pool)
}

func newPostgresLedger(pool pgxPool) *PostgresLedger {
	return &PostgresLedger{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (l *PostgresLedger) Append(ctx context.Context, appt Appointment) (Appointment, error) {
	if err := appt.validate(); err != nil {
		return Appointment{}, err
	}
	doctor, err := json.Marshal(appt.Doctor)
	if err != nil {
		return Appointment{}, fmt.Errorf("ledger: encode doctor: %w", err)
	}
	if appt.BookedAt.IsZero() {
		appt.BookedAt = l.now()
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("ledger: begin: %w", err)
	}
	fail := func(step string, err error) (Appointment, error) {
		_ = tx.Rollback(ctx)
		return Appointment{}, fmt.Errorf("ledger: %s: %w", step, err)
	}

	if _, err := tx.Exec(ctx, `LOCK TABLE appointments IN EXCLUSIVE MODE`); err != nil {
		return fail("lock", err)
	}
	var next int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM appointments`).Scan(&next); err != nil {
		return fail("next id", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, patient_name, patient_email, doctor_id, doctor, day, time, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, next, appt.Patient.Name, appt.Patient.Email, appt.Doctor.ID, doctor, appt.Day, appt.Time, appt.BookedAt)
	if err != nil {
		return fail("insert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, fmt.Errorf("ledger: commit: %w", err)
	}

	appt.ID = next
	return appt, nil
}

func (l *PostgresLedger) Query(ctx context.Context, filter Filter) ([]Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, patient_name, patient_email, doctor, day, time, booked_at
		FROM appointments
		WHERE $1 = '' OR patient_email = $1
		ORDER BY id
	`, filter.PatientEmail)
	if err != nil {
		return nil, fmt.Errorf("ledger: query: %w", err)
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		var (
			appt   Appointment
			doctor []byte
		)
		if err := rows.Scan(&appt.ID, &appt.Patient.Name, &appt.Patient.Email, &doctor, &appt.Day, &appt.Time, &appt.BookedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		if err := json.Unmarshal(doctor, &appt.Doctor); err != nil {
			return nil, fmt.Errorf("ledger: decode doctor %d: %w", appt.ID, err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: rows: %w", err)
	}
	return out, nil
}

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresLedgerAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	l := newPostgresLedger(mock)
	bookedAt := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	appt := sampleAppointment("alice@example.com")
	appt.BookedAt = bookedAt

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE appointments").WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(int64(3)))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(int64(3), "alice wong", "alice@example.com", 1, pgxmock.AnyArg(), "Monday", "2:00 PM", bookedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := l.Append(context.Background(), appt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerAppendRollsBackOnInsertFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	l := newPostgresLedger(mock)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE appointments").WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO appointments").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = l.Append(context.Background(), sampleAppointment("alice@example.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger: insert")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerAppendValidatesFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	appt := sampleAppointment("")
	_, err = newPostgresLedger(mock).Append(context.Background(), appt)
	assert.ErrorIs(t, err, ErrIncomplete)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	appt := sampleAppointment("alice@example.com")
	doctor, err := json.Marshal(appt.Doctor)
	require.NoError(t, err)
	bookedAt := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, patient_name, patient_email").
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_name", "patient_email", "doctor", "day", "time", "booked_at"}).
			AddRow(int64(1), "alice wong", "alice@example.com", doctor, "Monday", "2:00 PM", bookedAt))

	got, err := newPostgresLedger(mock).Query(context.Background(), Filter{PatientEmail: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Dr. Jane Doe", got[0].Doctor.Name)
	assert.Equal(t, "2:00 PM", got[0].Time)
	require.NoError(t, mock.ExpectationsWereMet())
}

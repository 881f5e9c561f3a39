package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
)

func sampleAppointment(email string) Appointment {
	return Appointment{
		Patient: Patient{Name: "alice wong", Email: email},
		Doctor:  directory.Default().Doctors()[0],
		Day:     "Monday",
		Time:    "2:00 PM",
	}
}

func TestMemoryLedgerAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	for want := int64(1); want <= 5; want++ {
		appt, err := l.Append(ctx, sampleAppointment("alice@example.com"))
		require.NoError(t, err)
		assert.Equal(t, want, appt.ID)
		assert.False(t, appt.BookedAt.IsZero())
	}
	assert.Equal(t, 5, l.Len())
}

func TestMemoryLedgerConcurrentAppendsAreGapFree(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	const n = 50

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := l.Append(ctx, sampleAppointment("alice@example.com"))
			if err == nil {
				ids <- appt.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		seen[id] = true
	}
	require.Len(t, seen, n)
	for id := int64(1); id <= n; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
}

func TestMemoryLedgerQueryByEmail(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	_, err := l.Append(ctx, sampleAppointment("alice@example.com"))
	require.NoError(t, err)
	_, err = l.Append(ctx, sampleAppointment("bob@example.com"))
	require.NoError(t, err)

	alice, err := l.Query(ctx, Filter{PatientEmail: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, int64(1), alice[0].ID)

	none, err := l.Query(ctx, Filter{PatientEmail: "carol@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryLedgerRejectsIncomplete(t *testing.T) {
	l := NewMemoryLedger()
	appt := sampleAppointment("alice@example.com")
	appt.Time = ""
	_, err := l.Append(context.Background(), appt)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Zero(t, l.Len())
}

func TestMemoryLedgerStoresSnapshots(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	appt := sampleAppointment("alice@example.com")
	_, err := l.Append(ctx, appt)
	require.NoError(t, err)

	appt.Doctor.Availability[0].Slots[0] = "changed"
	got, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, "9:00 AM", got[0].Doctor.Availability[0].Slots[0])
}

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgRepository_ReserveSlot_CAS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)

	id := uuid.New()
	doctorID := uuid.New()
	start := time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE slots`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "doctor_id", "start_at", "duration_minutes", "status", "updated_at",
		}).AddRow(id, doctorID, start, 30, SlotReserved, start))

	slot, err := repo.ReserveSlot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, SlotReserved, slot.Status)
	assert.Equal(t, doctorID, slot.DoctorID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ReserveSlot_LostRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()

	// The conditional update matches no row when the slot is already
	// reserved or never existed; both must surface as unavailability.
	mock.ExpectQuery(`UPDATE slots`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.ReserveSlot(context.Background(), id)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_FreeSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE slots`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.FreeSlot(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_FreeSlot_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE slots`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.FreeSlot(context.Background(), id)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

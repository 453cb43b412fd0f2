package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_ByID(t *testing.T) {
	repo := newMemoryRepo()
	doc := repo.addDoctor("Dra. Ana Souza")
	slotID := repo.addSlot(doc, time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC), SlotFree)

	r := NewReservation(repo, zerolog.Nop())

	slot, err := r.Reserve(context.Background(), &slotID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, SlotReserved, slot.Status)

	// Second claim on the same id loses.
	_, err = r.Reserve(context.Background(), &slotID, nil, nil)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserve_UnknownIDLooksUnavailable(t *testing.T) {
	r := NewReservation(newMemoryRepo(), zerolog.Nop())

	missing := uuid.New()
	_, err := r.Reserve(context.Background(), &missing, nil, nil)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserve_ByInstant(t *testing.T) {
	repo := newMemoryRepo()
	doc := repo.addDoctor("Dra. Ana Souza")
	at := time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC)
	slotID := repo.addSlot(doc, at, SlotFree)

	r := NewReservation(repo, zerolog.Nop())

	slot, err := r.Reserve(context.Background(), nil, &at, nil)
	require.NoError(t, err)
	assert.Equal(t, slotID, slot.ID)
	assert.Equal(t, SlotReserved, slot.Status)
}

func TestReserve_AmbiguousInstantNeedsDoctor(t *testing.T) {
	repo := newMemoryRepo()
	ana := repo.addDoctor("Dra. Ana Souza")
	rui := repo.addDoctor("Dr. Rui Prado")
	at := time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC)
	repo.addSlot(ana, at, SlotFree)
	ruiSlot := repo.addSlot(rui, at, SlotFree)

	r := NewReservation(repo, zerolog.Nop())

	// Two doctors at the same instant: refuse to guess.
	_, err := r.Reserve(context.Background(), nil, &at, nil)
	assert.ErrorIs(t, err, ErrAmbiguousSlot)

	// Supplying the doctor disambiguates.
	slot, err := r.Reserve(context.Background(), nil, &at, &rui)
	require.NoError(t, err)
	assert.Equal(t, ruiSlot, slot.ID)
}

func TestReserve_NoTargetAtAll(t *testing.T) {
	r := NewReservation(newMemoryRepo(), zerolog.Nop())

	_, err := r.Reserve(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrReserveTargetMissing)
}

func TestReserve_InstantWithNoMatch(t *testing.T) {
	repo := newMemoryRepo()
	doc := repo.addDoctor("Dra. Ana Souza")
	repo.addSlot(doc, time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC), SlotReserved)

	r := NewReservation(repo, zerolog.Nop())

	at := time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC)
	_, err := r.Reserve(context.Background(), nil, &at, nil)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserve_ConcurrentSingleWinner(t *testing.T) {
	const attempts = 32

	repo := newMemoryRepo()
	doc := repo.addDoctor("Dra. Ana Souza")
	slotID := repo.addSlot(doc, time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC), SlotFree)

	r := NewReservation(repo, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Reserve(context.Background(), &slotID, nil, nil)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent reserve must succeed")
}

func TestRelease_Idempotent(t *testing.T) {
	repo := newMemoryRepo()
	doc := repo.addDoctor("Dra. Ana Souza")
	slotID := repo.addSlot(doc, time.Date(2025, 9, 4, 22, 5, 0, 0, time.UTC), SlotReserved)

	r := NewReservation(repo, zerolog.Nop())

	require.NoError(t, r.Release(context.Background(), slotID))
	require.NoError(t, r.Release(context.Background(), slotID))

	slot, err := repo.GetSlotByID(context.Background(), slotID)
	require.NoError(t, err)
	assert.Equal(t, SlotFree, slot.Status)
}

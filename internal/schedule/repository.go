package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotUnavailable covers both a missing slot id and a slot that is no
	// longer free; callers get the same signal either way.
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrAmbiguousSlot means several doctors hold a free slot at the target
	// instant and no doctor was supplied to pick one.
	ErrAmbiguousSlot = errors.New("more than one slot matches that time")
)

// Repository contains all slot reads and the two status transitions. The
// conditional update in ReserveSlot is the sole serialization point for
// concurrent reservations; there is no in-process locking on top of it.
type Repository interface {
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// ListFreeSlots returns free slots for the doctors inside [from, to),
	// ascending by start time.
	ListFreeSlots(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time, limit int) ([]SlotView, error)

	// FindFirstFreeSlot returns the earliest free slot at or after from, or
	// (nil, nil) when the doctors have no future availability.
	FindFirstFreeSlot(ctx context.Context, doctorIDs []uuid.UUID, from time.Time) (*SlotView, error)

	// FindFreeSlotsAt returns free slots starting exactly at the instant,
	// optionally filtered to one doctor.
	FindFreeSlotsAt(ctx context.Context, at time.Time, doctorID *uuid.UUID) ([]SlotView, error)

	// ReserveSlot transitions free -> reserved via a compare-and-set update.
	// Exactly one concurrent caller wins; the rest get ErrSlotUnavailable.
	ReserveSlot(ctx context.Context, id uuid.UUID) (*Slot, error)

	// FreeSlot sets the slot back to free with no precondition on its
	// current status, so cancellation and compensation stay idempotent.
	FreeSlot(ctx context.Context, id uuid.UUID) error

	// FindOrphanedReserved lists reserved slots not held by any non-canceled
	// appointment. Used by the sweeper for operator visibility only.
	FindOrphanedReserved(ctx context.Context) ([]Slot, error)
}

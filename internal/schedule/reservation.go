package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrReserveTargetMissing = errors.New("either a slot id or a target time is required")

// Reservation turns exactly one free slot into a reserved one. All racing
// is settled by the repository's conditional update, never by in-process
// locks: requests may arrive from independently scaled processes.
type Reservation struct {
	slots  Repository
	logger zerolog.Logger
}

func NewReservation(slots Repository, logger zerolog.Logger) *Reservation {
	return &Reservation{
		slots:  slots,
		logger: logger.With().Str("component", "reservation").Logger(),
	}
}

// Reserve claims a slot by explicit id, or by resolving (instant, doctor)
// to a single candidate. When the instant matches slots of several doctors
// and no doctor was given, it refuses to guess and returns ErrAmbiguousSlot.
func (r *Reservation) Reserve(ctx context.Context, slotID *uuid.UUID, targetInstant *time.Time, doctorID *uuid.UUID) (*Slot, error) {
	if slotID != nil {
		return r.reserveByID(ctx, *slotID)
	}
	if targetInstant == nil {
		return nil, ErrReserveTargetMissing
	}

	candidates, err := r.slots.FindFreeSlotsAt(ctx, targetInstant.UTC(), doctorID)
	if err != nil {
		return nil, fmt.Errorf("find slots at %s: %w", targetInstant.UTC(), err)
	}

	switch len(candidates) {
	case 0:
		return nil, ErrSlotUnavailable
	case 1:
		return r.reserveByID(ctx, candidates[0].ID)
	default:
		if doctorID == nil {
			return nil, ErrAmbiguousSlot
		}
		// One doctor cannot hold two simultaneous slots; the schema's
		// uniqueness constraint on (doctor_id, start_at) enforces that.
		return nil, ErrAmbiguousSlot
	}
}

func (r *Reservation) reserveByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := r.slots.ReserveSlot(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve slot %s: %w", id, err)
	}

	r.logger.Info().
		Str("slot_id", slot.ID.String()).
		Str("doctor_id", slot.DoctorID.String()).
		Time("start_at", slot.StartAt).
		Msg("slot reserved")

	return slot, nil
}

// Release returns a slot to free. Used by the booking coordinator for
// compensation and cancellation; idempotent by design.
func (r *Reservation) Release(ctx context.Context, id uuid.UUID) error {
	if err := r.slots.FreeSlot(ctx, id); err != nil {
		return fmt.Errorf("free slot %s: %w", id, err)
	}
	r.logger.Info().Str("slot_id", id.String()).Msg("slot released")
	return nil
}

package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all appointment persistence used by the coordinator.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus applies the transition only if the current status still
	// matches from (conditional update, same pattern as slot reservation).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// SetStatus overwrites the status unconditionally. Only the cancel
	// compensation path uses it, to restore the pre-cancel status.
	SetStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

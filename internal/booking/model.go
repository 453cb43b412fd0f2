package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
)

// Appointment is created only after a slot was reserved; SlotID, DoctorID
// and ScheduledAt always mirror the reserved slot.
type Appointment struct {
	ID          uuid.UUID
	PatientName string
	CPF         string
	Birthdate   string // YYYY-MM-DD
	Specialty   string
	Region      string
	Phone       string // international dialing digits
	Email       string
	Reason      string
	ScheduledAt time.Time // UTC, mirrors the slot's start
	Status      AppointmentStatus
	SlotID      uuid.UUID
	DoctorID    uuid.UUID
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventLog rows give operators a durable trail: bookings, cancellations,
// compensations, and fatal inconsistencies under their own marker.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	SlotID        *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCanceled  = "APPOINTMENT_CANCELED"
	EventSlotCompensated      = "SLOT_COMPENSATED"
	EventFatalInconsistency   = "FATAL_INCONSISTENCY"
	EventCancelStatusRestored = "CANCEL_STATUS_RESTORED"
)

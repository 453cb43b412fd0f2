package schedule

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotFree     SlotStatus = "free"
	SlotReserved SlotStatus = "reserved"
)

// Slot is one bookable time unit for one doctor. Slots are created by an
// external scheduling-management process; this service only flips status
// between free and reserved.
type Slot struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	StartAt         time.Time // UTC
	DurationMinutes int
	Status          SlotStatus
	UpdatedAt       time.Time
}

// SlotView is a slot joined with its doctor's display name, for listings.
type SlotView struct {
	Slot
	DoctorName string
}

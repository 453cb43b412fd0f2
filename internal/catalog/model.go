package catalog

import "github.com/google/uuid"

// Specialty is a catalog entity, read-only to this service.
type Specialty struct {
	ID   uuid.UUID
	Name string
}

// Doctor is a catalog entity, read-only to this service.
type Doctor struct {
	ID          uuid.UUID
	Name        string
	SpecialtyID uuid.UUID
}

// DoctorCandidate is a doctor returned by fuzzy search, with its best
// similarity score (maximum of the raw and accent-insensitive scores).
type DoctorCandidate struct {
	Doctor
	Score float64
}

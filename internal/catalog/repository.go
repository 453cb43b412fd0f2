package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSpecialtyNotFound = errors.New("specialty not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
)

// Repository contains all catalog reads needed by the resolvers and the
// availability engine. The catalog is never mutated here.
type Repository interface {
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	GetSpecialtyByID(ctx context.Context, id uuid.UUID) (*Specialty, error)

	// FindSpecialtiesByName does an accent-insensitive substring match.
	FindSpecialtiesByName(ctx context.Context, term string) ([]Specialty, error)

	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialtyIDs []uuid.UUID, limit int) ([]Doctor, error)

	// SearchDoctors ranks doctors by trigram similarity against the query.
	SearchDoctors(ctx context.Context, query string, limit int) ([]DoctorCandidate, error)
}

package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of pgxpool.Pool used here; pgxmock satisfies it too.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db querier
}

func NewPgRepository(db querier) *PgRepository {
	return &PgRepository{db: db}
}

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	if err := row.Scan(&d.ID, &d.Name, &d.SpecialtyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name
		FROM specialties
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetSpecialtyByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name
		FROM specialties
		WHERE id = $1
	`, id)
	return scanSpecialty(row)
}

func (r *PgRepository) FindSpecialtiesByName(ctx context.Context, term string) ([]Specialty, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name
		FROM specialties
		WHERE unaccent(lower(name)) LIKE '%' || unaccent(lower($1)) || '%'
		ORDER BY name
	`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialty_id
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsBySpecialty(ctx context.Context, specialtyIDs []uuid.UUID, limit int) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialty_id
		FROM doctors
		WHERE specialty_id = ANY($1)
		ORDER BY name
		LIMIT $2
	`, specialtyIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

// SearchDoctors scores candidates with pg_trgm on both the raw name and the
// unaccented lowercase form, keeping the higher score.
func (r *PgRepository) SearchDoctors(ctx context.Context, query string, limit int) ([]DoctorCandidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialty_id,
		       GREATEST(
		           similarity(name, $1),
		           similarity(unaccent(lower(name)), unaccent(lower($1)))
		       ) AS score
		FROM doctors
		WHERE name % $1
		   OR unaccent(lower(name)) LIKE '%' || unaccent(lower($1)) || '%'
		ORDER BY score DESC, name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorCandidate
	for rows.Next() {
		var c DoctorCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.SpecialtyID, &c.Score); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

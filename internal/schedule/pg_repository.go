package schedule

import (
	"context"
	"errors"
	"time"

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

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.StartAt, &s.DurationMinutes, &s.Status, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, start_at, duration_minutes, status, updated_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) scanViews(rows pgx.Rows) ([]SlotView, error) {
	defer rows.Close()

	var result []SlotView
	for rows.Next() {
		var v SlotView
		err := rows.Scan(&v.ID, &v.DoctorID, &v.StartAt, &v.DurationMinutes, &v.Status, &v.UpdatedAt, &v.DoctorName)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListFreeSlots(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time, limit int) ([]SlotView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.doctor_id, s.start_at, s.duration_minutes, s.status, s.updated_at, d.name
		FROM slots s
		JOIN doctors d ON d.id = s.doctor_id
		WHERE s.status = 'free'
		  AND s.doctor_id = ANY($1)
		  AND s.start_at >= $2
		  AND s.start_at < $3
		ORDER BY s.start_at, d.name
		LIMIT $4
	`, doctorIDs, from, to, limit)
	if err != nil {
		return nil, err
	}
	return r.scanViews(rows)
}

func (r *PgRepository) FindFirstFreeSlot(ctx context.Context, doctorIDs []uuid.UUID, from time.Time) (*SlotView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT s.id, s.doctor_id, s.start_at, s.duration_minutes, s.status, s.updated_at, d.name
		FROM slots s
		JOIN doctors d ON d.id = s.doctor_id
		WHERE s.status = 'free'
		  AND s.doctor_id = ANY($1)
		  AND s.start_at >= $2
		ORDER BY s.start_at
		LIMIT 1
	`, doctorIDs, from)

	var v SlotView
	err := row.Scan(&v.ID, &v.DoctorID, &v.StartAt, &v.DurationMinutes, &v.Status, &v.UpdatedAt, &v.DoctorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PgRepository) FindFreeSlotsAt(ctx context.Context, at time.Time, doctorID *uuid.UUID) ([]SlotView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.doctor_id, s.start_at, s.duration_minutes, s.status, s.updated_at, d.name
		FROM slots s
		JOIN doctors d ON d.id = s.doctor_id
		WHERE s.status = 'free'
		  AND s.start_at = $1
		  AND ($2::uuid IS NULL OR s.doctor_id = $2)
		ORDER BY d.name
	`, at, doctorID)
	if err != nil {
		return nil, err
	}
	return r.scanViews(rows)
}

// ReserveSlot is the compare-and-set transition free -> reserved. The WHERE
// clause carries the precondition; zero rows back means someone else won or
// the id never existed, and both report ErrSlotUnavailable.
func (r *PgRepository) ReserveSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET status = 'reserved',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'free'
		RETURNING id, doctor_id, start_at, duration_minutes, status, updated_at
	`, id)

	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	return slot, nil
}

func (r *PgRepository) FreeSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE slots
		SET status = 'free',
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) FindOrphanedReserved(ctx context.Context) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.doctor_id, s.start_at, s.duration_minutes, s.status, s.updated_at
		FROM slots s
		WHERE s.status = 'reserved'
		  AND NOT EXISTS (
		      SELECT 1 FROM appointments a
		      WHERE a.slot_id = s.id AND a.status <> 'canceled'
		  )
		ORDER BY s.start_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

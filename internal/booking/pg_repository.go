package booking

import (
	"context"
	"errors"
	"fmt"

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

const appointmentColumns = `
	id, patient_name, cpf, birthdate, specialty, region, phone, email,
	reason, scheduled_at, status, slot_id, doctor_id, source,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientName, &a.CPF, &a.Birthdate, &a.Specialty, &a.Region,
		&a.Phone, &a.Email, &a.Reason, &a.ScheduledAt, &a.Status, &a.SlotID,
		&a.DoctorID, &a.Source, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := appt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_name, cpf, birthdate, specialty, region, phone, email,
			reason, scheduled_at, status, slot_id, doctor_id, source,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		RETURNING`+appointmentColumns,
		id, appt.PatientName, appt.CPF, appt.Birthdate, appt.Specialty,
		appt.Region, appt.Phone, appt.Email, appt.Reason, appt.ScheduledAt,
		appt.Status, appt.SlotID, appt.DoctorID, appt.Source,
	)
	return scanAppointment(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING`+appointmentColumns,
		id, to, from,
	)
	return scanAppointment(row)
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+appointmentColumns,
		id, to,
	)
	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, slot_id, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, ev.EventType, ev.AppointmentID, ev.SlotID, ev.Payload)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consultaja/clinic-scheduling/internal/dateparse"
	"github.com/consultaja/clinic-scheduling/internal/observability"
	"github.com/consultaja/clinic-scheduling/internal/schedule"
	"github.com/consultaja/clinic-scheduling/internal/validate"
)

// Config carries the clinic-wide settings the coordinator needs. Explicit
// construction only; there is no ambient global configuration.
type Config struct {
	ClinicTZ        *time.Location
	DefaultDialCode string
	ReasonMaxLen    int
	Source          string
}

// BookingInput is the full argument set of the bookAppointment tool.
type BookingInput struct {
	Name           string
	CPF            string
	Birthdate      string
	Specialty      string
	Region         string
	Phone          string
	Email          string
	Reason         string
	DesiredDate    string
	SlotID         *uuid.UUID
	DoctorID       *uuid.UUID
	IdempotencyKey string
}

type BookingResult struct {
	ID      uuid.UUID
	Summary string
}

type CancelResult struct {
	ID          uuid.UUID
	FreedSlotID uuid.UUID
}

// Coordinator owns the invariant that every non-canceled appointment holds
// exactly one reserved slot. It validates input, reserves through the
// reservation engine, persists the appointment, and compensates the slot
// when persistence fails after the reservation succeeded.
type Coordinator struct {
	repo        Repository
	reservation *schedule.Reservation
	normalizer  dateparse.Normalizer
	idem        IdempotencyStore
	metrics     *observability.Metrics
	cfg         Config
	logger      zerolog.Logger
	now         func() time.Time
}

func NewCoordinator(repo Repository, reservation *schedule.Reservation, normalizer dateparse.Normalizer, idem IdempotencyStore, metrics *observability.Metrics, cfg Config, logger zerolog.Logger) *Coordinator {
	if cfg.ReasonMaxLen <= 0 {
		cfg.ReasonMaxLen = 500
	}
	if cfg.DefaultDialCode == "" {
		cfg.DefaultDialCode = "55"
	}
	return &Coordinator{
		repo:        repo,
		reservation: reservation,
		normalizer:  normalizer,
		idem:        idem,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger.With().Str("component", "booking_coordinator").Logger(),
		now:         time.Now,
	}
}

// Book runs the end-to-end booking flow. Reservation failures propagate
// verbatim; persistence failures release the slot before reporting.
func (c *Coordinator) Book(ctx context.Context, input BookingInput) (*BookingResult, error) {
	normalized, err := c.validateInput(input)
	if err != nil {
		return nil, err
	}

	// A concrete slot id pins the instant already; only free-text bookings
	// go through the date normalizer.
	var instant *time.Time
	if input.SlotID == nil {
		resolved, err := c.resolveDesiredInstant(ctx, input.DesiredDate)
		if err != nil {
			return nil, err
		}
		instant = &resolved
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && c.idem != nil {
		existing, acquired, err := c.idem.Begin(ctx, key)
		if err != nil {
			c.logger.Error().Err(err).Msg("idempotency claim failed")
			return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui registrar o pedido agora, tente novamente"}
		}
		if existing != nil {
			return c.replayBooking(ctx, *existing)
		}
		if !acquired {
			return nil, &UserError{Kind: ErrRequestInFlight, Message: "já estou processando esse agendamento, aguarde um instante"}
		}
	}

	result, err := c.bookReserved(ctx, normalized, instant, input)
	if key != "" && c.idem != nil {
		if err != nil {
			if abortErr := c.idem.Abort(ctx, key); abortErr != nil {
				c.logger.Warn().Err(abortErr).Str("idempotency_key", key).Msg("idempotency abort failed")
			}
		} else if commitErr := c.idem.Commit(ctx, key, result.ID); commitErr != nil {
			c.logger.Warn().Err(commitErr).Str("idempotency_key", key).Msg("idempotency commit failed")
		}
	}
	return result, err
}

// bookReserved reserves the slot and persists the appointment. The deferred
// compensation runs on every non-committed exit, error or panic alike.
func (c *Coordinator) bookReserved(ctx context.Context, normalized normalizedInput, instant *time.Time, input BookingInput) (_ *BookingResult, err error) {
	slot, err := c.reservation.Reserve(ctx, input.SlotID, instant, input.DoctorID)
	if err != nil {
		if errors.Is(err, schedule.ErrSlotUnavailable) {
			c.metrics.ObserveReservationConflict()
		}
		return nil, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		c.compensateSlot(ctx, slot.ID)
	}()

	appt := &Appointment{
		PatientName: normalized.name,
		CPF:         normalized.cpf,
		Birthdate:   normalized.birthdate,
		Specialty:   normalized.specialty,
		Region:      normalized.region,
		Phone:       normalized.phone,
		Email:       normalized.email,
		Reason:      normalized.reason,
		ScheduledAt: slot.StartAt,
		Status:      StatusPending,
		SlotID:      slot.ID,
		DoctorID:    slot.DoctorID,
		Source:      c.cfg.Source,
	}

	created, err := c.repo.Create(ctx, appt)
	if err != nil {
		c.logger.Error().Err(err).Str("slot_id", slot.ID.String()).Msg("appointment persist failed")
		return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui concluir o agendamento, tente novamente em instantes"}
	}
	committed = true

	c.logEvent(ctx, EventAppointmentBooked, &created.ID, &slot.ID, map[string]any{
		"specialty":    created.Specialty,
		"scheduled_at": created.ScheduledAt,
	})

	summary := fmt.Sprintf("Consulta de %s agendada para %s em nome de %s.",
		created.Specialty,
		schedule.FormatClinicTime(created.ScheduledAt, c.cfg.ClinicTZ),
		created.PatientName,
	)
	return &BookingResult{ID: created.ID, Summary: summary}, nil
}

// compensateSlot returns a reserved slot to free after a downstream
// failure. A compensation failure leaves the slot orphaned in reserved
// state: that is the one inconsistency this service cannot repair, so it
// is logged with distinct markers for operator remediation.
func (c *Coordinator) compensateSlot(ctx context.Context, slotID uuid.UUID) {
	if err := c.reservation.Release(ctx, slotID); err != nil {
		c.metrics.ObserveFatalInconsistency()
		c.logger.Error().
			Err(err).
			Str("event", "fatal_inconsistency").
			Str("slot_id", slotID.String()).
			Msg("slot compensation failed, slot orphaned in reserved state")
		c.logEvent(ctx, EventFatalInconsistency, nil, &slotID, map[string]any{
			"error": err.Error(),
		})
		return
	}

	c.metrics.ObserveCompensation()
	c.logEvent(ctx, EventSlotCompensated, nil, &slotID, nil)
}

// Cancel moves an appointment to canceled and frees its slot. Safe to
// retry: a second cancel re-runs the idempotent slot release and succeeds.
func (c *Coordinator) Cancel(ctx context.Context, appointmentID uuid.UUID) (*CancelResult, error) {
	appt, err := c.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		c.logger.Error().Err(err).Str("appointment_id", appointmentID.String()).Msg("load appointment failed")
		return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui localizar o agendamento agora, tente novamente"}
	}

	previous := appt.Status
	statusChanged := false
	if previous != StatusCanceled {
		if _, err := c.repo.UpdateStatus(ctx, appt.ID, previous, StatusCanceled); err != nil {
			c.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("cancel status update failed")
			return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui cancelar agora, tente novamente"}
		}
		statusChanged = true
	}

	if appt.SlotID != uuid.Nil {
		if err := c.reservation.Release(ctx, appt.SlotID); err != nil {
			if statusChanged {
				if _, restoreErr := c.repo.SetStatus(ctx, appt.ID, previous); restoreErr != nil {
					c.metrics.ObserveFatalInconsistency()
					c.logger.Error().
						Err(restoreErr).
						Str("event", "fatal_inconsistency").
						Str("appointment_id", appt.ID.String()).
						Str("slot_id", appt.SlotID.String()).
						Msg("cancel rollback failed, appointment stuck canceled with reserved slot")
				} else {
					c.logEvent(ctx, EventCancelStatusRestored, &appt.ID, &appt.SlotID, nil)
				}
			}
			c.logger.Error().Err(err).Str("slot_id", appt.SlotID.String()).Msg("slot release failed during cancel")
			return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui liberar o horário agora, tente novamente"}
		}
	}

	if statusChanged {
		c.logEvent(ctx, EventAppointmentCanceled, &appt.ID, &appt.SlotID, nil)
	}

	return &CancelResult{ID: appt.ID, FreedSlotID: appt.SlotID}, nil
}

type normalizedInput struct {
	name      string
	cpf       string
	birthdate string
	specialty string
	region    string
	phone     string
	email     string
	reason    string
}

func (c *Coordinator) validateInput(input BookingInput) (normalizedInput, error) {
	var out normalizedInput

	out.name = strings.TrimSpace(input.Name)
	if out.name == "" {
		return out, invalidInput("informe o nome completo do paciente")
	}

	if !validate.IsValidCPF(input.CPF) {
		return out, invalidInput("o CPF informado não é válido")
	}
	out.cpf = input.CPF

	out.birthdate = validate.NormalizeBirthdate(input.Birthdate)
	if out.birthdate == "" {
		return out, invalidInput("não consegui entender a data de nascimento, use o formato DD/MM/AAAA")
	}

	out.specialty = strings.TrimSpace(input.Specialty)
	if out.specialty == "" {
		return out, invalidInput("informe a especialidade desejada")
	}

	out.region = strings.TrimSpace(input.Region)
	if out.region == "" {
		return out, invalidInput("informe a região de atendimento")
	}

	out.email = strings.TrimSpace(input.Email)
	if !validate.IsValidEmail(out.email) {
		return out, invalidInput("o e-mail informado não parece válido")
	}

	out.phone = validate.NormalizePhone(input.Phone, c.cfg.DefaultDialCode)
	if !validate.IsValidPhone(out.phone) {
		return out, invalidInput("o telefone informado não parece válido")
	}

	out.reason = strings.TrimSpace(input.Reason)
	if len(out.reason) > c.cfg.ReasonMaxLen {
		return out, invalidInput("o motivo da consulta está longo demais")
	}

	if input.SlotID == nil && strings.TrimSpace(input.DesiredDate) == "" {
		return out, invalidInput("informe a data e o horário desejados")
	}

	return out, nil
}

func (c *Coordinator) resolveDesiredInstant(ctx context.Context, desired string) (time.Time, error) {
	res, err := c.normalizer.Normalize(ctx, desired, c.cfg.ClinicTZ.String())
	if err != nil {
		c.logger.Error().Err(err).Msg("date normalizer call failed")
		return time.Time{}, &UserError{Kind: ErrStoreFailure, Message: "não consegui interpretar a data agora, tente novamente"}
	}
	if res == nil {
		return time.Time{}, invalidDateTime("não consegui entender a data desejada, pode reformular?")
	}
	if !res.HasTime {
		return time.Time{}, invalidDateTime("preciso também do horário da consulta, não apenas do dia")
	}
	if res.ISOUTC.Before(c.now()) {
		return time.Time{}, invalidDateTime("esse horário já passou, escolha uma data futura")
	}
	return res.ISOUTC, nil
}

// replayBooking rebuilds the original result for a retried idempotent call.
func (c *Coordinator) replayBooking(ctx context.Context, id uuid.UUID) (*BookingResult, error) {
	appt, err := c.repo.GetByID(ctx, id)
	if err != nil {
		c.logger.Error().Err(err).Str("appointment_id", id.String()).Msg("idempotent replay load failed")
		return nil, &UserError{Kind: ErrStoreFailure, Message: "não consegui recuperar o agendamento, tente novamente"}
	}
	summary := fmt.Sprintf("Consulta de %s agendada para %s em nome de %s.",
		appt.Specialty,
		schedule.FormatClinicTime(appt.ScheduledAt, c.cfg.ClinicTZ),
		appt.PatientName,
	)
	return &BookingResult{ID: appt.ID, Summary: summary}, nil
}

func (c *Coordinator) logEvent(ctx context.Context, eventType string, appointmentID, slotID *uuid.UUID, payload map[string]any) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("event_type", eventType).Msg("event payload marshal failed")
			data = nil
		}
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		SlotID:        slotID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}
	if err := c.repo.InsertEvent(ctx, ev); err != nil {
		c.logger.Warn().Err(err).Str("event_type", eventType).Msg("event log insert failed")
	}
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consultaja/clinic-scheduling/internal/booking"
	"github.com/consultaja/clinic-scheduling/internal/catalog"
	"github.com/consultaja/clinic-scheduling/internal/civil"
	"github.com/consultaja/clinic-scheduling/internal/dateparse"
	"github.com/consultaja/clinic-scheduling/internal/schedule"
)

const genericFailureMessage = "tive um problema para consultar a agenda agora, tente novamente em instantes"

// Handlers binds every declared tool to the engines behind it.
type Handlers struct {
	availability *schedule.Availability
	coordinator  *booking.Coordinator
	doctors      *catalog.DoctorResolver
	specialties  *catalog.SpecialtyResolver
	catalog      catalog.Repository
	normalizer   dateparse.Normalizer
	clinicTZ     *time.Location
	logger       zerolog.Logger
	now          func() time.Time
}

func NewHandlers(
	availability *schedule.Availability,
	coordinator *booking.Coordinator,
	doctors *catalog.DoctorResolver,
	specialties *catalog.SpecialtyResolver,
	cat catalog.Repository,
	normalizer dateparse.Normalizer,
	clinicTZ *time.Location,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		availability: availability,
		coordinator:  coordinator,
		doctors:      doctors,
		specialties:  specialties,
		catalog:      cat,
		normalizer:   normalizer,
		clinicTZ:     clinicTZ,
		logger:       logger.With().Str("component", "tools").Logger(),
		now:          time.Now,
	}
}

// userMessage translates the error taxonomy into a short patient-facing
// message. Internal detail stays in the logs only.
func (h *Handlers) userMessage(err error) string {
	var ue *booking.UserError
	if errors.As(err, &ue) {
		return ue.Message
	}

	switch {
	case errors.Is(err, schedule.ErrSlotUnavailable):
		return "esse horário não está mais disponível, quer ver outras opções?"
	case errors.Is(err, schedule.ErrAmbiguousSlot):
		return "há mais de um médico com horário nesse momento, informe com qual deseja marcar"
	case errors.Is(err, schedule.ErrReserveTargetMissing):
		return "preciso de um horário ou de um código de vaga para reservar"
	case errors.Is(err, booking.ErrAppointmentNotFound):
		return "não encontrei um agendamento com esse código"
	case errors.Is(err, catalog.ErrDoctorNotFound):
		return "não encontrei esse médico no cadastro"
	case errors.Is(err, civil.ErrInvalidDateFormat):
		return "a data deve estar no formato AAAA-MM-DD"
	default:
		h.logger.Error().Err(err).Msg("tool call failed")
		return genericFailureMessage
	}
}

func parseArgs[T any](raw json.RawMessage) (T, bool) {
	var args T
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, false
	}
	return args, true
}

func parseOptionalDay(day string) (*civil.YMD, error) {
	if day == "" {
		return nil, nil
	}
	d, err := civil.ParseYMD(day)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ValidateDateTime normalizes a free-text date. A day in the past fails; a
// resolvable day without a time is fine (hasTime reports it), because only
// booking itself requires an explicit time.
func (h *Handlers) ValidateDateTime(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		DateText string `json:"dateText"`
	}](raw)
	if !ok || args.DateText == "" {
		return ValidateDateTimeResult{base: failure("informe a data que deseja validar")}
	}

	res, err := h.normalizer.Normalize(ctx, args.DateText, h.clinicTZ.String())
	if err != nil {
		return ValidateDateTimeResult{base: failure(h.userMessage(err))}
	}
	if res == nil {
		return ValidateDateTimeResult{base: failure("não consegui entender essa data, pode reformular?")}
	}

	now := h.now()
	today := civil.YMDOf(now, h.clinicTZ).String()
	if res.YMDLocal < today {
		return ValidateDateTimeResult{base: failure("essa data já passou, escolha uma data futura")}
	}
	if res.HasTime && res.ISOUTC.Before(now) {
		return ValidateDateTimeResult{base: failure("esse horário já passou, escolha um horário futuro")}
	}

	hasTime := res.HasTime
	return ValidateDateTimeResult{
		base:     base{OK: true},
		ISOUTC:   res.ISOUTC.UTC().Format(time.RFC3339),
		YMDLocal: res.YMDLocal,
		HasTime:  &hasTime,
	}
}

func (h *Handlers) BookAppointment(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		Name           string `json:"name"`
		CPF            string `json:"cpf"`
		Birthdate      string `json:"birthdate"`
		Specialty      string `json:"specialty"`
		Region         string `json:"region"`
		Phone          string `json:"phone"`
		Email          string `json:"email"`
		Reason         string `json:"reason"`
		DesiredDate    string `json:"desiredDate"`
		SlotID         string `json:"slotId"`
		DoctorID       string `json:"doctorId"`
		IdempotencyKey string `json:"idempotencyKey"`
	}](raw)
	if !ok {
		return BookAppointmentResult{base: failure("não consegui ler os dados do agendamento")}
	}

	input := booking.BookingInput{
		Name:           args.Name,
		CPF:            args.CPF,
		Birthdate:      args.Birthdate,
		Specialty:      args.Specialty,
		Region:         args.Region,
		Phone:          args.Phone,
		Email:          args.Email,
		Reason:         args.Reason,
		DesiredDate:    args.DesiredDate,
		IdempotencyKey: args.IdempotencyKey,
	}
	if args.SlotID != "" {
		id, err := uuid.Parse(args.SlotID)
		if err != nil {
			return BookAppointmentResult{base: failure("o código da vaga informado não é válido")}
		}
		input.SlotID = &id
	}
	if args.DoctorID != "" {
		id, err := uuid.Parse(args.DoctorID)
		if err != nil {
			return BookAppointmentResult{base: failure("o código do médico informado não é válido")}
		}
		input.DoctorID = &id
	}

	res, err := h.coordinator.Book(ctx, input)
	if err != nil {
		return BookAppointmentResult{base: failure(h.userMessage(err))}
	}
	return BookAppointmentResult{
		base:    base{OK: true},
		ID:      res.ID.String(),
		Summary: res.Summary,
	}
}

func (h *Handlers) ListSpecialties(ctx context.Context, _ json.RawMessage) Result {
	specialties, err := h.catalog.ListSpecialties(ctx)
	if err != nil {
		return ListSpecialtiesResult{base: failure(h.userMessage(err)), Specialties: []string{}}
	}

	names := make([]string, 0, len(specialties))
	for _, s := range specialties {
		names = append(names, s.Name)
	}
	return ListSpecialtiesResult{base: base{OK: true}, Specialties: names}
}

func (h *Handlers) ListDoctors(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		Search string `json:"search"`
		Limit  int    `json:"limit"`
	}](raw)
	if !ok {
		return ListDoctorsResult{base: failure("não consegui ler a busca"), Doctors: []DoctorItem{}}
	}
	if args.Limit <= 0 || args.Limit > 200 {
		args.Limit = 200
	}

	res, err := h.doctors.Resolve(ctx, args.Search, args.Limit)
	if err != nil {
		return ListDoctorsResult{base: failure(h.userMessage(err)), Doctors: []DoctorItem{}}
	}
	if res.NeedsQuery {
		return ListDoctorsResult{
			base:    failure("me diga o nome (ou parte do nome) do médico que procura"),
			Doctors: []DoctorItem{},
		}
	}

	out := ListDoctorsResult{
		base:    base{OK: true},
		Doctors: make([]DoctorItem, 0, len(res.Candidates)),
		HasMore: res.HasMore,
	}
	for _, c := range res.Candidates {
		out.Doctors = append(out.Doctors, DoctorItem{
			ID:          c.ID.String(),
			Name:        c.Name,
			SpecialtyID: c.SpecialtyID.String(),
			Score:       c.Score,
		})
	}
	if res.ResolvedID != nil {
		out.ResolvedID = res.ResolvedID.String()
		out.ResolvedBy = res.ResolvedBy
		out.Confidence = res.Confidence
	} else if len(res.Candidates) > 1 {
		out.Ambiguous = true
	}
	return out
}

func (h *Handlers) ListDoctorsBySpecialty(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		SpecialtyID   string `json:"specialtyId"`
		SpecialtyName string `json:"specialtyName"`
		Limit         int    `json:"limit"`
	}](raw)
	if !ok {
		return ListDoctorsBySpecialtyResult{base: failure("não consegui ler a busca"), Doctors: []DoctorItem{}}
	}
	term := args.SpecialtyID
	if term == "" {
		term = args.SpecialtyName
	}
	if term == "" {
		return ListDoctorsBySpecialtyResult{base: failure("informe a especialidade"), Doctors: []DoctorItem{}}
	}
	if args.Limit <= 0 || args.Limit > 200 {
		args.Limit = 200
	}

	ids, err := h.specialties.ResolveIDs(ctx, term)
	if err != nil {
		return ListDoctorsBySpecialtyResult{base: failure(h.userMessage(err)), Doctors: []DoctorItem{}}
	}

	out := ListDoctorsBySpecialtyResult{base: base{OK: true}, Doctors: []DoctorItem{}}
	if len(ids) == 0 {
		return out
	}

	doctors, err := h.catalog.ListDoctorsBySpecialty(ctx, ids, args.Limit)
	if err != nil {
		return ListDoctorsBySpecialtyResult{base: failure(h.userMessage(err)), Doctors: []DoctorItem{}}
	}
	for _, d := range doctors {
		out.Doctors = append(out.Doctors, DoctorItem{
			ID:          d.ID.String(),
			Name:        d.Name,
			SpecialtyID: d.SpecialtyID.String(),
		})
	}
	return out
}

func (h *Handlers) ListDoctorSlots(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		DoctorID string `json:"doctorId"`
		Day      string `json:"day"`
		Limit    int    `json:"limit"`
	}](raw)
	if !ok {
		return ListSlotsResult{base: failure("não consegui ler a consulta"), Slots: []schedule.SlotItem{}}
	}

	doctorID, err := uuid.Parse(args.DoctorID)
	if err != nil {
		return ListSlotsResult{base: failure("o código do médico informado não é válido"), Slots: []schedule.SlotItem{}}
	}
	day, err := parseOptionalDay(args.Day)
	if err != nil {
		return ListSlotsResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}

	items, err := h.availability.SlotsForDoctorOnDay(ctx, doctorID, day, args.Limit)
	if err != nil {
		return ListSlotsResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}
	return ListSlotsResult{base: base{OK: true}, Slots: items}
}

func (h *Handlers) ListSpecialtySlots(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		SpecialtyID   string `json:"specialtyId"`
		SpecialtyName string `json:"specialtyName"`
		Day           string `json:"day"`
		Limit         int    `json:"limit"`
	}](raw)
	if !ok {
		return ListSlotsResult{base: failure("não consegui ler a consulta"), Slots: []schedule.SlotItem{}}
	}
	term := args.SpecialtyID
	if term == "" {
		term = args.SpecialtyName
	}
	if term == "" {
		return ListSlotsResult{base: failure("informe a especialidade"), Slots: []schedule.SlotItem{}}
	}
	day, err := parseOptionalDay(args.Day)
	if err != nil {
		return ListSlotsResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}

	items, err := h.availability.SlotsForSpecialtyOnDay(ctx, term, day, args.Limit)
	if err != nil {
		return ListSlotsResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}
	return ListSlotsResult{base: base{OK: true}, Slots: items}
}

func (h *Handlers) WeeklyDoctorAgenda(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		DoctorID string `json:"doctorId"`
	}](raw)
	if !ok {
		return WeeklyAgendaResult{base: failure("não consegui ler a consulta"), Agenda: []schedule.DayAgenda{}}
	}

	doctorID, err := uuid.Parse(args.DoctorID)
	if err != nil {
		return WeeklyAgendaResult{base: failure("o código do médico informado não é válido"), Agenda: []schedule.DayAgenda{}}
	}

	doctor, err := h.catalog.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return WeeklyAgendaResult{base: failure(h.userMessage(err)), Agenda: []schedule.DayAgenda{}}
	}

	agenda, err := h.availability.WeeklyAgendaForDoctor(ctx, doctorID)
	if err != nil {
		return WeeklyAgendaResult{base: failure(h.userMessage(err)), Agenda: []schedule.DayAgenda{}}
	}
	return WeeklyAgendaResult{
		base:       base{OK: true},
		StartDay:   agenda.StartDay,
		TotalDays:  agenda.TotalDays,
		DoctorName: doctor.Name,
		Agenda:     agenda.Days,
	}
}

func (h *Handlers) WeeklySpecialtyAgenda(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		SpecialtyID   string `json:"specialtyId"`
		SpecialtyName string `json:"specialtyName"`
	}](raw)
	if !ok {
		return WeeklyAgendaResult{base: failure("não consegui ler a consulta"), Agenda: []schedule.DayAgenda{}}
	}
	term := args.SpecialtyID
	if term == "" {
		term = args.SpecialtyName
	}
	if term == "" {
		return WeeklyAgendaResult{base: failure("informe a especialidade"), Agenda: []schedule.DayAgenda{}}
	}

	agenda, err := h.availability.WeeklyAgendaForSpecialty(ctx, term)
	if err != nil {
		return WeeklyAgendaResult{base: failure(h.userMessage(err)), Agenda: []schedule.DayAgenda{}}
	}
	return WeeklyAgendaResult{
		base:      base{OK: true},
		StartDay:  agenda.StartDay,
		TotalDays: agenda.TotalDays,
		Agenda:    agenda.Days,
	}
}

func (h *Handlers) NextAvailableDoctorDay(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		DoctorID string `json:"doctorId"`
		From     string `json:"from"`
	}](raw)
	if !ok {
		return NextAvailableDayResult{base: failure("não consegui ler a consulta"), Slots: []schedule.SlotItem{}}
	}

	doctorID, err := uuid.Parse(args.DoctorID)
	if err != nil {
		return NextAvailableDayResult{base: failure("o código do médico informado não é válido"), Slots: []schedule.SlotItem{}}
	}
	from, err := parseOptionalDay(args.From)
	if err != nil {
		return NextAvailableDayResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}

	agenda, err := h.availability.NextAvailableDayForDoctor(ctx, doctorID, from)
	if err != nil {
		return NextAvailableDayResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}
	if agenda == nil {
		return NextAvailableDayResult{base: base{OK: true}, Slots: []schedule.SlotItem{}}
	}
	return NextAvailableDayResult{base: base{OK: true}, Day: agenda.Day, Slots: agenda.Slots}
}

func (h *Handlers) NextAvailableSpecialtyDay(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		SpecialtyID   string `json:"specialtyId"`
		SpecialtyName string `json:"specialtyName"`
		From          string `json:"from"`
	}](raw)
	if !ok {
		return NextAvailableDayResult{base: failure("não consegui ler a consulta"), Slots: []schedule.SlotItem{}}
	}
	term := args.SpecialtyID
	if term == "" {
		term = args.SpecialtyName
	}
	if term == "" {
		return NextAvailableDayResult{base: failure("informe a especialidade"), Slots: []schedule.SlotItem{}}
	}
	from, err := parseOptionalDay(args.From)
	if err != nil {
		return NextAvailableDayResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}

	agenda, err := h.availability.NextAvailableDayForSpecialty(ctx, term, from)
	if err != nil {
		return NextAvailableDayResult{base: failure(h.userMessage(err)), Slots: []schedule.SlotItem{}}
	}
	if agenda == nil {
		return NextAvailableDayResult{base: base{OK: true}, Slots: []schedule.SlotItem{}}
	}
	return NextAvailableDayResult{base: base{OK: true}, Day: agenda.Day, Slots: agenda.Slots}
}

func (h *Handlers) CancelAppointment(ctx context.Context, raw json.RawMessage) Result {
	args, ok := parseArgs[struct {
		AppointmentID string `json:"appointmentId"`
	}](raw)
	if !ok {
		return CancelAppointmentResult{base: failure("não consegui ler o pedido de cancelamento")}
	}

	id, err := uuid.Parse(args.AppointmentID)
	if err != nil {
		return CancelAppointmentResult{base: failure("o código do agendamento informado não é válido")}
	}

	res, err := h.coordinator.Cancel(ctx, id)
	if err != nil {
		return CancelAppointmentResult{base: failure(h.userMessage(err))}
	}
	return CancelAppointmentResult{
		base:        base{OK: true},
		ID:          res.ID.String(),
		FreedSlotID: res.FreedSlotID.String(),
	}
}

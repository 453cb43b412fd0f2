package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/consultaja/clinic-scheduling/internal/catalog"
	"github.com/consultaja/clinic-scheduling/internal/civil"
)

const (
	MaxDoctorDaySlots    = 100
	MaxSpecialtyDaySlots = 200

	// Upper bound for week-wide queries before grouping per day.
	weeklyQueryLimit = 1000

	// Specialty fan-out cap when collecting the doctor id set.
	specialtyDoctorLimit = 500
)

// SlotItem is one listed slot, ready for the dialogue driver: the raw UTC
// instant plus a clinic-locale display string the model can echo verbatim.
type SlotItem struct {
	SlotID          uuid.UUID `json:"slotId"`
	StartUTC        time.Time `json:"startUtc"`
	Display         string    `json:"display"`
	DoctorID        uuid.UUID `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	DurationMinutes int       `json:"durationMinutes"`
}

// DayAgenda groups the free slots of one civil day. Days with no slots
// still appear, with an empty list.
type DayAgenda struct {
	Day   string     `json:"day"`
	Slots []SlotItem `json:"slots"`
}

// WeeklyAgenda spans civil today through Sunday inclusive.
type WeeklyAgenda struct {
	StartDay  string      `json:"startDay"`
	TotalDays int         `json:"totalDays"`
	Days      []DayAgenda `json:"agenda"`
}

// Availability answers every listing question. It never mutates state.
type Availability struct {
	slots       Repository
	catalog     catalog.Repository
	specialties *catalog.SpecialtyResolver
	loc         *time.Location
	now         func() time.Time
}

func NewAvailability(slots Repository, cat catalog.Repository, specialties *catalog.SpecialtyResolver, loc *time.Location) *Availability {
	return &Availability{
		slots:       slots,
		catalog:     cat,
		specialties: specialties,
		loc:         loc,
		now:         time.Now,
	}
}

var weekdaysPtBR = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

// FormatClinicTime renders an instant in the clinic locale, e.g.
// "quinta-feira, 04/09/2025 às 19:05".
func FormatClinicTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s, %s às %s",
		weekdaysPtBR[int(local.Weekday())],
		local.Format("02/01/2006"),
		local.Format("15:04"),
	)
}

// FormatDisplay renders an instant in the clinic locale.
func (a *Availability) FormatDisplay(t time.Time) string {
	return FormatClinicTime(t, a.loc)
}

func (a *Availability) toItems(views []SlotView) []SlotItem {
	items := make([]SlotItem, 0, len(views))
	for _, v := range views {
		items = append(items, SlotItem{
			SlotID:          v.ID,
			StartUTC:        v.StartAt,
			Display:         a.FormatDisplay(v.StartAt),
			DoctorID:        v.DoctorID,
			DoctorName:      v.DoctorName,
			DurationMinutes: v.DurationMinutes,
		})
	}
	return items
}

// dayWindow resolves the query window for one civil day: the whole day, or
// from now onward when the day is the clinic's current civil day.
func (a *Availability) dayWindow(day civil.YMD) (from, to time.Time) {
	r := civil.DayRangeFor(a.loc, day)
	now := a.now()
	if day == civil.YMDOf(now, a.loc) && now.After(r.StartUTC) {
		return now, r.EndUTC
	}
	return r.StartUTC, r.EndUTC
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

// SlotsForDoctorOnDay lists a doctor's free slots on one civil day,
// defaulting to tomorrow when no day is given.
func (a *Availability) SlotsForDoctorOnDay(ctx context.Context, doctorID uuid.UUID, day *civil.YMD, limit int) ([]SlotItem, error) {
	target := a.defaultToTomorrow(day)
	from, to := a.dayWindow(target)

	views, err := a.slots.ListFreeSlots(ctx, []uuid.UUID{doctorID}, from, to, clampLimit(limit, MaxDoctorDaySlots))
	if err != nil {
		return nil, fmt.Errorf("list doctor slots: %w", err)
	}
	return a.toItems(views), nil
}

// SlotsForSpecialtyOnDay lists free slots across every doctor of the
// specialty. An unresolvable specialty yields an empty list, not an error.
func (a *Availability) SlotsForSpecialtyOnDay(ctx context.Context, specialtyNameOrID string, day *civil.YMD, limit int) ([]SlotItem, error) {
	doctorIDs, err := a.specialtyDoctorIDs(ctx, specialtyNameOrID)
	if err != nil {
		return nil, err
	}
	if len(doctorIDs) == 0 {
		return []SlotItem{}, nil
	}

	target := a.defaultToTomorrow(day)
	from, to := a.dayWindow(target)

	views, err := a.slots.ListFreeSlots(ctx, doctorIDs, from, to, clampLimit(limit, MaxSpecialtyDaySlots))
	if err != nil {
		return nil, fmt.Errorf("list specialty slots: %w", err)
	}
	return a.toItems(views), nil
}

// WeeklyAgendaForDoctor builds the day-by-day agenda from civil today
// through Sunday. Today's slots are future-only.
func (a *Availability) WeeklyAgendaForDoctor(ctx context.Context, doctorID uuid.UUID) (*WeeklyAgenda, error) {
	return a.weeklyAgenda(ctx, []uuid.UUID{doctorID})
}

// WeeklyAgendaForSpecialty is the weekly agenda unioned across the
// specialty's doctors.
func (a *Availability) WeeklyAgendaForSpecialty(ctx context.Context, specialtyNameOrID string) (*WeeklyAgenda, error) {
	doctorIDs, err := a.specialtyDoctorIDs(ctx, specialtyNameOrID)
	if err != nil {
		return nil, err
	}
	return a.weeklyAgenda(ctx, doctorIDs)
}

func (a *Availability) weeklyAgenda(ctx context.Context, doctorIDs []uuid.UUID) (*WeeklyAgenda, error) {
	now := a.now()
	week := civil.WeekRangeUntilSunday(a.loc, now)

	agenda := &WeeklyAgenda{
		StartDay:  week.StartYMD.String(),
		TotalDays: week.TotalDays,
		Days:      make([]DayAgenda, week.TotalDays),
	}
	index := make(map[string]int, week.TotalDays)
	for i := 0; i < week.TotalDays; i++ {
		day := civil.AddDays(week.StartYMD, i)
		agenda.Days[i] = DayAgenda{Day: day.String(), Slots: []SlotItem{}}
		index[day.String()] = i
	}

	if len(doctorIDs) == 0 {
		return agenda, nil
	}

	// now >= today's range start, so this trims today to future-only.
	views, err := a.slots.ListFreeSlots(ctx, doctorIDs, now, week.EndUTC, weeklyQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("list weekly slots: %w", err)
	}

	for _, v := range views {
		key := civil.YMDOf(v.StartAt, a.loc).String()
		i, ok := index[key]
		if !ok {
			continue
		}
		agenda.Days[i].Slots = append(agenda.Days[i].Slots, a.toItems([]SlotView{v})[0])
	}
	return agenda, nil
}

// NextAvailableDayForDoctor finds the earliest free slot at or after
// fromDay (default now), then returns every free slot on that civil day.
// A nil agenda means the doctor has no future availability.
func (a *Availability) NextAvailableDayForDoctor(ctx context.Context, doctorID uuid.UUID, fromDay *civil.YMD) (*DayAgenda, error) {
	return a.nextAvailableDay(ctx, []uuid.UUID{doctorID}, fromDay)
}

func (a *Availability) NextAvailableDayForSpecialty(ctx context.Context, specialtyNameOrID string, fromDay *civil.YMD) (*DayAgenda, error) {
	doctorIDs, err := a.specialtyDoctorIDs(ctx, specialtyNameOrID)
	if err != nil {
		return nil, err
	}
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	return a.nextAvailableDay(ctx, doctorIDs, fromDay)
}

func (a *Availability) nextAvailableDay(ctx context.Context, doctorIDs []uuid.UUID, fromDay *civil.YMD) (*DayAgenda, error) {
	from := a.now()
	if fromDay != nil {
		start := civil.DayRangeFor(a.loc, *fromDay).StartUTC
		if start.After(from) {
			from = start
		}
	}

	first, err := a.slots.FindFirstFreeSlot(ctx, doctorIDs, from)
	if err != nil {
		return nil, fmt.Errorf("find first free slot: %w", err)
	}
	if first == nil {
		return nil, nil
	}

	day := civil.YMDOf(first.StartAt, a.loc)
	windowFrom, windowTo := a.dayWindow(day)
	if windowFrom.Before(from) {
		windowFrom = from
	}

	views, err := a.slots.ListFreeSlots(ctx, doctorIDs, windowFrom, windowTo, weeklyQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("list next-day slots: %w", err)
	}
	return &DayAgenda{Day: day.String(), Slots: a.toItems(views)}, nil
}

func (a *Availability) defaultToTomorrow(day *civil.YMD) civil.YMD {
	if day != nil {
		return *day
	}
	return civil.AddDays(civil.YMDOf(a.now(), a.loc), 1)
}

func (a *Availability) specialtyDoctorIDs(ctx context.Context, specialtyNameOrID string) ([]uuid.UUID, error) {
	specialtyIDs, err := a.specialties.ResolveIDs(ctx, specialtyNameOrID)
	if err != nil {
		return nil, fmt.Errorf("resolve specialty: %w", err)
	}
	if len(specialtyIDs) == 0 {
		return nil, nil
	}

	doctors, err := a.catalog.ListDoctorsBySpecialty(ctx, specialtyIDs, specialtyDoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("list specialty doctors: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

package tools

import (
	"github.com/consultaja/clinic-scheduling/internal/schedule"
)

// Result is what every tool returns to the dialogue driver: always an ok
// flag, and on failure a short message fit to show the patient verbatim.
type Result interface {
	IsOK() bool
}

type base struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func (b base) IsOK() bool { return b.OK }

func failure(message string) base {
	return base{OK: false, Message: message}
}

// DoctorItem is one doctor in listing/search results.
type DoctorItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SpecialtyID string  `json:"specialtyId"`
	Score       float64 `json:"score,omitempty"`
}

type ValidateDateTimeResult struct {
	base
	ISOUTC   string `json:"isoUTC,omitempty"`
	YMDLocal string `json:"ymdLocal,omitempty"`
	HasTime  *bool  `json:"hasTime,omitempty"`
}

type BookAppointmentResult struct {
	base
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type ListSpecialtiesResult struct {
	base
	Specialties []string `json:"specialties"`
}

type ListDoctorsResult struct {
	base
	Doctors    []DoctorItem `json:"doctors"`
	HasMore    bool         `json:"hasMore,omitempty"`
	Ambiguous  bool         `json:"ambiguous,omitempty"`
	ResolvedID string       `json:"resolvedId,omitempty"`
	ResolvedBy string       `json:"resolvedBy,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
}

type ListDoctorsBySpecialtyResult struct {
	base
	Doctors []DoctorItem `json:"doctors"`
}

type ListSlotsResult struct {
	base
	Slots []schedule.SlotItem `json:"slots"`
}

type WeeklyAgendaResult struct {
	base
	StartDay   string               `json:"startDay,omitempty"`
	TotalDays  int                  `json:"totalDays,omitempty"`
	DoctorName string               `json:"doctorName,omitempty"`
	Agenda     []schedule.DayAgenda `json:"agenda"`
}

type NextAvailableDayResult struct {
	base
	Day   string              `json:"day,omitempty"`
	Slots []schedule.SlotItem `json:"slots"`
}

type CancelAppointmentResult struct {
	base
	ID          string `json:"id,omitempty"`
	FreedSlotID string `json:"freedSlotId,omitempty"`
}

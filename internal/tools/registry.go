package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/consultaja/clinic-scheduling/internal/observability"
)

// Handler executes one tool call. Failures are reported inside the Result,
// never as a Go error: the dialogue driver always gets something it can
// relay to the patient.
type Handler func(ctx context.Context, args json.RawMessage) Result

// Registry maps declared tool names to handlers. Construction fails unless
// the mapping is exactly one-to-one with Declared, so a drifting schema is
// caught at process start instead of mid-conversation.
type Registry struct {
	handlers map[string]Handler
	metrics  *observability.Metrics
}

func NewRegistry(h *Handlers, metrics *observability.Metrics) (*Registry, error) {
	handlers := map[string]Handler{
		ToolValidateDateTime:          h.ValidateDateTime,
		ToolBookAppointment:           h.BookAppointment,
		ToolListSpecialties:           h.ListSpecialties,
		ToolListDoctors:               h.ListDoctors,
		ToolListDoctorsBySpecialty:    h.ListDoctorsBySpecialty,
		ToolListDoctorSlots:           h.ListDoctorSlots,
		ToolListSpecialtySlots:        h.ListSpecialtySlots,
		ToolWeeklyDoctorAgenda:        h.WeeklyDoctorAgenda,
		ToolWeeklySpecialtyAgenda:     h.WeeklySpecialtyAgenda,
		ToolNextAvailableDoctorDay:    h.NextAvailableDoctorDay,
		ToolNextAvailableSpecialtyDay: h.NextAvailableSpecialtyDay,
		ToolCancelAppointment:         h.CancelAppointment,
	}
	return newRegistry(handlers, metrics)
}

func newRegistry(handlers map[string]Handler, metrics *observability.Metrics) (*Registry, error) {
	declared := make(map[string]bool, len(Declared))
	for _, spec := range Declared {
		if declared[spec.Name] {
			return nil, fmt.Errorf("tool %q declared twice", spec.Name)
		}
		declared[spec.Name] = true
		if handlers[spec.Name] == nil {
			return nil, fmt.Errorf("tool %q declared but has no handler", spec.Name)
		}
	}
	for name := range handlers {
		if !declared[name] {
			return nil, fmt.Errorf("handler %q registered but not declared", name)
		}
	}
	return &Registry{handlers: handlers, metrics: metrics}, nil
}

// Known reports whether name is a declared tool.
func (r *Registry) Known(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Dispatch runs the named tool and records its outcome. Callers must check
// Known first; dispatching an unknown name is a programming error.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	res := handler(ctx, args)
	outcome := "ok"
	if !res.IsOK() {
		outcome = "error"
	}
	r.metrics.ObserveTool(name, outcome)
	return res, nil
}

package tools

// Tool names as declared to the language model.
const (
	ToolValidateDateTime          = "validateDateTime"
	ToolBookAppointment           = "bookAppointment"
	ToolListSpecialties           = "listSpecialties"
	ToolListDoctors               = "listDoctors"
	ToolListDoctorsBySpecialty    = "listDoctorsBySpecialty"
	ToolListDoctorSlots           = "listDoctorSlots"
	ToolListSpecialtySlots        = "listSpecialtySlots"
	ToolWeeklyDoctorAgenda        = "weeklyDoctorAgenda"
	ToolWeeklySpecialtyAgenda     = "weeklySpecialtyAgenda"
	ToolNextAvailableDoctorDay    = "nextAvailableDoctorDay"
	ToolNextAvailableSpecialtyDay = "nextAvailableSpecialtyDay"
	ToolCancelAppointment         = "cancelAppointment"
)

// Spec declares one tool's argument shape. The registry refuses to start
// unless every declared tool has a handler and every handler a declaration,
// so "unknown function" is not a reachable runtime path through the API.
type Spec struct {
	Name     string
	Required []string
	Optional []string
}

// Declared is the schema handed to the dialogue driver.
var Declared = []Spec{
	{Name: ToolValidateDateTime, Required: []string{"dateText"}},
	{
		Name:     ToolBookAppointment,
		Required: []string{"name", "cpf", "birthdate", "specialty", "region", "phone", "email", "desiredDate"},
		Optional: []string{"reason", "slotId", "doctorId", "idempotencyKey"},
	},
	{Name: ToolListSpecialties},
	{Name: ToolListDoctors, Optional: []string{"search", "limit"}},
	{Name: ToolListDoctorsBySpecialty, Optional: []string{"specialtyId", "specialtyName", "limit"}},
	{Name: ToolListDoctorSlots, Required: []string{"doctorId"}, Optional: []string{"day", "limit"}},
	{Name: ToolListSpecialtySlots, Optional: []string{"specialtyId", "specialtyName", "day", "limit"}},
	{Name: ToolWeeklyDoctorAgenda, Required: []string{"doctorId"}},
	{Name: ToolWeeklySpecialtyAgenda, Optional: []string{"specialtyId", "specialtyName"}},
	{Name: ToolNextAvailableDoctorDay, Required: []string{"doctorId"}, Optional: []string{"from"}},
	{Name: ToolNextAvailableSpecialtyDay, Optional: []string{"specialtyId", "specialtyName", "from"}},
	{Name: ToolCancelAppointment, Required: []string{"appointmentId"}},
}

package reserve

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Result describes a reservation attempt. The appointment fields are only set when Final is Committed.
type Result struct {
	shell.HandlerResult

	AppointmentID scheduler.AppointmentID
	Caregiver     string
	Vaccine       string
	Date          scheduler.Date

	// Trace lists the states of the last attempt in the order they were entered, including Final.
	Trace []State
	Final State
}

// IsCommitted reports whether the appointment was recorded.
func (r Result) IsCommitted() bool {
	return r.Final == Committed
}

func (r *Result) enter(state State) {
	r.Trace = append(r.Trace, state)
	r.Final = state
}

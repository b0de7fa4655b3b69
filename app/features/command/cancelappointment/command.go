// Package cancelappointment implements the CancelAppointment use case.
// Either participant of an appointment may cancel it; to anybody else it does not exist.
package cancelappointment

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "CancelAppointment"
)

// Command carries the appointment id as typed by the caller, it is parsed by the handler.
type Command struct {
	Requester     scheduler.Identity
	AppointmentID string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(requester scheduler.Identity, appointmentID string) Command {
	return Command{
		Requester:     requester,
		AppointmentID: appointmentID,
	}
}

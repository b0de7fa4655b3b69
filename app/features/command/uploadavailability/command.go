// Package uploadavailability implements the UploadAvailability use case: a caregiver opens a date for booking.
package uploadavailability

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "UploadAvailability"
)

// Command represents the intent of a caregiver to be bookable on the date given as MM-DD-YYYY.
type Command struct {
	Requester scheduler.Identity
	Date      string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(requester scheduler.Identity, date string) Command {
	return Command{
		Requester: requester,
		Date:      date,
	}
}

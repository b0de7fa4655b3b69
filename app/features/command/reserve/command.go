package reserve

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "Reserve"
)

// Command represents the intent of the requester to book vaccine on the date given as MM-DD-YYYY.
type Command struct {
	Requester scheduler.Identity
	Date      string
	Vaccine   string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(requester scheduler.Identity, date string, vaccine string) Command {
	return Command{
		Requester: requester,
		Date:      date,
		Vaccine:   vaccine,
	}
}

// Package adddoses implements the AddDoses use case: a caregiver adds doses of a vaccine to the inventory.
package adddoses

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "AddDoses"
)

// Command carries the dose count as typed by the caller, it is parsed by the handler.
type Command struct {
	Requester scheduler.Identity
	Vaccine   string
	Count     string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(requester scheduler.Identity, vaccine string, count string) Command {
	return Command{
		Requester: requester,
		Vaccine:   vaccine,
		Count:     count,
	}
}

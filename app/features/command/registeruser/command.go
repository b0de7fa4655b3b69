// Package registeruser implements account creation for patients and caregivers.
package registeruser

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "RegisterUser"
)

// Command represents the intent to create an account with the given role.
type Command struct {
	Role     scheduler.Role
	Username string
	Password string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(role scheduler.Role, username string, password string) Command {
	return Command{
		Role:     role,
		Username: username,
		Password: password,
	}
}

// Package login implements the credential check of patients and caregivers.
// The handler only authenticates; binding the identity to a session is up to the caller.
package login

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	commandType = "Login"
)

// Command represents the intent of a caller (identified by Requester, zero if anonymous)
// to log in with the given role and credentials.
type Command struct {
	Requester scheduler.Identity
	Role      scheduler.Role
	Username  string
	Password  string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(requester scheduler.Identity, role scheduler.Role, username string, password string) Command {
	return Command{
		Requester: requester,
		Role:      role,
		Username:  username,
		Password:  password,
	}
}

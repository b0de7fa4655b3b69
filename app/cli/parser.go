package cli

import (
	"strings"
)

// Operation names of the line protocol.
const (
	OpCreatePatient           = "create_patient"
	OpCreateCaregiver         = "create_caregiver"
	OpLoginPatient            = "login_patient"
	OpLoginCaregiver          = "login_caregiver"
	OpSearchCaregiverSchedule = "search_caregiver_schedule"
	OpReserve                 = "reserve"
	OpUploadAvailability      = "upload_availability"
	OpCancel                  = "cancel"
	OpAddDoses                = "add_doses"
	OpShowAppointments        = "show_appointments"
	OpLogout                  = "logout"
	OpQuit                    = "quit"
	OpHelp                    = "help"
)

// Line is a tokenized command line.
type Line struct {
	Operation string
	Args      []string
}

// IsEmpty reports whether the line contained no tokens.
func (l Line) IsEmpty() bool {
	return l.Operation == ""
}

// Arity is the number of tokens including the operation name.
func (l Line) Arity() int {
	if l.IsEmpty() {
		return 0
	}

	return len(l.Args) + 1
}

// Parse lower-cases the whole line and splits it on whitespace.
// Usernames, passwords and vaccine names are therefore case-insensitive.
func Parse(raw string) Line {
	tokens := strings.Fields(strings.ToLower(raw))
	if len(tokens) == 0 {
		return Line{}
	}

	return Line{Operation: tokens[0], Args: tokens[1:]}
}

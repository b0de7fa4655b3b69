package scheduler

// Role distinguishes the two kinds of accounts.
type Role int

const (
	// RoleUnknown is the zero Role and never assigned to an account.
	RoleUnknown Role = iota
	RolePatient
	RoleCaregiver
)

// String provides a string representation of Role for logging and table routing.
func (r Role) String() string {
	switch r {
	case RolePatient:
		return "patient"
	case RoleCaregiver:
		return "caregiver"
	default:
		return "unknown"
	}
}

// Identity is an authenticated caller.
type Identity struct {
	Username string
	Role     Role
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i.Username == "" && i.Role == RoleUnknown
}

// IsPatient reports whether the identity is an authenticated patient.
func (i Identity) IsPatient() bool {
	return !i.IsZero() && i.Role == RolePatient
}

// IsCaregiver reports whether the identity is an authenticated caregiver.
func (i Identity) IsCaregiver() bool {
	return !i.IsZero() && i.Role == RoleCaregiver
}

// Account holds the stored credentials of a patient or caregiver.
type Account struct {
	Username string
	Role     Role
	Salt     []byte
	Hash     []byte
}

// Vaccine is a named vaccine with its remaining doses.
type Vaccine struct {
	Name  string
	Doses uint
}

// Slot is a (caregiver, date) pair a caregiver opened for booking.
type Slot struct {
	Caregiver string
	Date      Date
}

// Appointment binds a patient to a caregiver's slot and the vaccine dose reserved for it.
type Appointment struct {
	ID        AppointmentID
	Patient   string
	Caregiver string
	Vaccine   string
	Date      Date
}

// IsOwnedBy reports whether username is the patient or the caregiver of the appointment.
func (a Appointment) IsOwnedBy(username string) bool {
	return username != "" && (a.Patient == username || a.Caregiver == username)
}

package reserve

// State is a step of the reservation saga.
type State int

const (
	Idle State = iota
	Validating
	SelectingCaregiver
	ReservingDose
	ClaimingSlot
	RecordingAppointment
	Committed
	RolledBack
)

var stateNames = map[State]string{
	Idle:                 "idle",
	Validating:           "validating",
	SelectingCaregiver:   "selecting_caregiver",
	ReservingDose:        "reserving_dose",
	ClaimingSlot:         "claiming_slot",
	RecordingAppointment: "recording_appointment",
	Committed:            "committed",
	RolledBack:           "rolled_back",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// IsTerminal reports whether the saga ends in s.
func (s State) IsTerminal() bool {
	return s == Committed || s == RolledBack
}

package appointmentsbyuser

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Appointments is the query result, ordered by appointment id.
type Appointments struct {
	Username     string
	Appointments []scheduler.Appointment
	Count        int
}

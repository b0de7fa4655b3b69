package caregiverschedule

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Schedule lists the open caregivers of a date in ascending username order and all vaccines ordered by name.
type Schedule struct {
	Date       scheduler.Date
	Caregivers []string
	Vaccines   []scheduler.Vaccine
}

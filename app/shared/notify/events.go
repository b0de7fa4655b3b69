package notify

import (
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	AppointmentReservedEventType   = "AppointmentReserved"
	AppointmentCanceledEventType   = "AppointmentCanceled"
	DosesAddedEventType            = "DosesAdded"
	AvailabilityPublishedEventType = "AvailabilityPublished"
)

// Event is a notification about something that happened in the scheduler.
type Event interface {
	EventType() string
	HasOccurredAt() time.Time
}

// AppointmentReserved is published after a reservation committed.
type AppointmentReserved struct {
	AppointmentID scheduler.AppointmentID `json:"appointment_id"`
	Patient       string                  `json:"patient"`
	Caregiver     string                  `json:"caregiver"`
	Vaccine       string                  `json:"vaccine"`
	Date          string                  `json:"date"`
	OccurredAt    time.Time               `json:"-"`
}

// BuildAppointmentReserved creates the event for a committed appointment.
func BuildAppointmentReserved(appointment scheduler.Appointment, occurredAt time.Time) AppointmentReserved {
	return AppointmentReserved{
		AppointmentID: appointment.ID,
		Patient:       appointment.Patient,
		Caregiver:     appointment.Caregiver,
		Vaccine:       appointment.Vaccine,
		Date:          appointment.Date.String(),
		OccurredAt:    occurredAt,
	}
}

func (e AppointmentReserved) EventType() string {
	return AppointmentReservedEventType
}

func (e AppointmentReserved) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// AppointmentCanceled is published after an appointment was deleted.
type AppointmentCanceled struct {
	AppointmentID scheduler.AppointmentID `json:"appointment_id"`
	CanceledBy    string                  `json:"canceled_by"`
	OccurredAt    time.Time               `json:"-"`
}

func (e AppointmentCanceled) EventType() string {
	return AppointmentCanceledEventType
}

func (e AppointmentCanceled) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// DosesAdded is published after a caregiver added doses to the inventory.
type DosesAdded struct {
	Vaccine    string    `json:"vaccine"`
	Count      int       `json:"count"`
	AddedBy    string    `json:"added_by"`
	OccurredAt time.Time `json:"-"`
}

func (e DosesAdded) EventType() string {
	return DosesAddedEventType
}

func (e DosesAdded) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// AvailabilityPublished is published after a caregiver opened a slot.
type AvailabilityPublished struct {
	Caregiver  string    `json:"caregiver"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"-"`
}

func (e AvailabilityPublished) EventType() string {
	return AvailabilityPublishedEventType
}

func (e AvailabilityPublished) HasOccurredAt() time.Time {
	return e.OccurredAt
}


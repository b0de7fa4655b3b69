// Package appointmentsbyuser implements the AppointmentsByUser query.
package appointmentsbyuser

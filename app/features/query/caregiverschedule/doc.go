// Package caregiverschedule implements the CaregiverSchedule query: which caregivers are
// open on a date, together with the current vaccine inventory.
package caregiverschedule

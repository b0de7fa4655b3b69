// Package reserve implements the Reserve use case: a patient books a vaccination on a date.
//
// The reservation is a compensating saga over three independent stores:
// the first open caregiver is selected, one dose is taken, the caregiver's slot is claimed
// and the appointment is recorded. A failure after the dose was taken gives the dose back,
// a failure after the slot was claimed also releases the slot, so a rolled back reservation
// leaves the inventory and the availability exactly as it found them.
//
// Taking the dose before claiming the slot keeps the scarcer resource first. Two patients can
// still select the same caregiver; the loser gets ErrSlotUnavailable after its dose was restored,
// or, with WithRetryOptions, runs the saga again and picks the next open caregiver.
package reserve

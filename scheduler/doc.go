// Package scheduler provides the core types of the vaccine reservation scheduler.
//
// It defines the storage ports every engine implements, the domain types flowing
// through them, the error taxonomy shared by all layers, and the dependency-free
// observability interfaces engines and handlers report to.
//
// The three resources under contention are:
//   - InventoryLedger: named vaccines and their remaining doses
//   - AvailabilityIndex: (caregiver, date) slots that can be claimed at most once
//   - AppointmentStore: appointment records with atomically allocated ids
//
// Every mutating operation on a single entity is atomic within the engine.
// Multi-step workflows (the reservation saga) are composed on top of these ports
// by the command handlers and compensate partial effects on failure.
//
// Common usage pattern:
//
//	caregiver, found, err := scheduler.FirstOpenCaregiver(ctx, engine, date)
//	if err != nil || !found {
//		// handle error / no availability
//	}
//
//	if err := engine.TryDecrement(ctx, "pfizer"); err != nil {
//		// ErrOutOfStock or ErrUnknownVaccine, nothing changed
//	}
//
//	if err := engine.Claim(ctx, caregiver, date); err != nil {
//		_ = engine.RestoreDose(ctx, "pfizer") // compensate
//	}
package scheduler

package scheduler

import (
	"context"
	"iter"
)

// InventoryLedger tracks named vaccines and their remaining doses.
type InventoryLedger interface {
	// AddDoses creates the vaccine with count doses or adds count to an existing one.
	// A negative count or empty name fails with ErrInvalidInput and changes nothing.
	AddDoses(ctx context.Context, name string, count int) error

	// TryDecrement atomically takes one dose. It fails with ErrUnknownVaccine or ErrOutOfStock
	// and changes nothing in those cases.
	TryDecrement(ctx context.Context, name string) error

	// RestoreDose gives back one dose taken by TryDecrement.
	RestoreDose(ctx context.Context, name string) error

	// Vaccines returns all vaccines ordered by name.
	Vaccines(ctx context.Context) ([]Vaccine, error)
}

// AvailabilityIndex tracks the open (caregiver, date) slots.
type AvailabilityIndex interface {
	// Publish opens the slot. Publishing an open or already claimed slot is a no-op.
	Publish(ctx context.Context, caregiver string, date Date) error

	// OpenCaregivers yields the caregivers with an open slot on date in ascending username order.
	// The sequence is lazy and restartable: every range re-reads the current state.
	OpenCaregivers(ctx context.Context, date Date) iter.Seq2[string, error]

	// Claim atomically transitions the slot from open to claimed.
	// Exactly one caller succeeds per slot, all others get ErrSlotUnavailable.
	Claim(ctx context.Context, caregiver string, date Date) error

	// Release transitions a claimed slot back to open. It fails with ErrSlotUnavailable
	// if the slot is not claimed.
	Release(ctx context.Context, caregiver string, date Date) error
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	// NextID allocates a fresh id. No two callers receive the same id, gaps are permitted.
	NextID(ctx context.Context) (AppointmentID, error)

	// Create persists the appointment. Failures are reported as ErrStorage.
	Create(ctx context.Context, appointment Appointment) error

	// Cancel deletes the appointment if requester is its patient or caregiver,
	// otherwise it fails with ErrNotFound.
	Cancel(ctx context.Context, id AppointmentID, requester string) error

	// ListFor returns the appointments of username (as patient or caregiver) ordered by id.
	ListFor(ctx context.Context, username string) ([]Appointment, error)
}

// AccountStore persists patient and caregiver credentials.
type AccountStore interface {
	// CreateAccount stores a new account, ErrDuplicateUsername if the username is taken for the role.
	CreateAccount(ctx context.Context, account Account) error

	// Account loads an account, ErrNotFound if there is none.
	Account(ctx context.Context, role Role, username string) (Account, error)
}

// Engine is a storage backend implementing all ports.
type Engine interface {
	InventoryLedger
	AvailabilityIndex
	AppointmentStore
	AccountStore
}

// FirstOpenCaregiver returns the first caregiver in the deterministic order of OpenCaregivers.
func FirstOpenCaregiver(ctx context.Context, index AvailabilityIndex, date Date) (string, bool, error) {
	for caregiver, err := range index.OpenCaregivers(ctx, date) {
		if err != nil {
			return "", false, err
		}

		return caregiver, true, nil
	}

	return "", false, nil
}

// CollectOpenCaregivers materializes OpenCaregivers into a slice.
func CollectOpenCaregivers(ctx context.Context, index AvailabilityIndex, date Date) ([]string, error) {
	caregivers := make([]string, 0)

	for caregiver, err := range index.OpenCaregivers(ctx, date) {
		if err != nil {
			return nil, err
		}

		caregivers = append(caregivers, caregiver)
	}

	return caregivers, nil
}

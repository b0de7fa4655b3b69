package scheduler

import (
	"errors"
)

// Error taxonomy shared by engines, command handlers and the command line.
var (
	// ErrInvalidInput is returned for malformed commands or arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAuthenticated is returned when an operation requires a logged-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAlreadyAuthenticated is returned when logging in while an identity is already present.
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// ErrNotAuthorized is returned when the identity has the wrong role for an operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound is returned when the requested entity does not exist (or is not visible to the requester).
	ErrNotFound = errors.New("not found")

	// ErrNoAvailability is returned when no caregiver has an open slot on the requested date.
	ErrNoAvailability = errors.New("no caregiver available on that date")

	// ErrOutOfStock is returned when a known vaccine has no doses left.
	ErrOutOfStock = errors.New("vaccine out of stock")

	// ErrUnknownVaccine is returned when a vaccine name was never added to the ledger.
	ErrUnknownVaccine = errors.New("unknown vaccine")

	// ErrSlotUnavailable is returned when a slot was already claimed or never published.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrStorage is returned when the storage layer failed (connectivity, durability, constraint).
	ErrStorage = errors.New("storage error")

	// ErrDuplicateUsername is returned when registering a username that is taken for that role.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials is returned when a login does not match a stored account.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Construction errors.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
)

// AppointmentID is a type alias for uint64, representing the unique id of an appointment.
type AppointmentID = uint64

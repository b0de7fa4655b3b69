package memengine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	logMsgDosesAdded          = "doses added"
	logMsgDoseTaken           = "dose taken"
	logMsgDoseRestored        = "dose restored"
	logMsgSlotPublished       = "slot published"
	logMsgSlotClaimed         = "slot claimed"
	logMsgSlotReleased        = "slot released"
	logMsgAppointmentCreated  = "appointment created"
	logMsgAppointmentCanceled = "appointment canceled"
	logAttrVaccine            = "vaccine"
	logAttrDoses              = "doses"
	logAttrCaregiver          = "caregiver"
	logAttrDate               = "date"
	logAttrAppointmentID      = "appointment_id"
)

// Engine is an in-memory scheduler.Engine.
type Engine struct {
	mu           sync.Mutex
	vaccines     map[string]uint
	slots        map[scheduler.Slot]bool // value: claimed
	appointments map[scheduler.AppointmentID]scheduler.Appointment
	accounts     map[scheduler.Role]map[string]scheduler.Account
	lastID       scheduler.AppointmentID
	logger       scheduler.Logger
}

// Option defines a functional option for configuring Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine. State changes are logged at debug level.
func WithLogger(logger scheduler.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an empty Engine.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		vaccines:     make(map[string]uint),
		slots:        make(map[scheduler.Slot]bool),
		appointments: make(map[scheduler.AppointmentID]scheduler.Appointment),
		accounts: map[scheduler.Role]map[string]scheduler.Account{
			scheduler.RolePatient:   make(map[string]scheduler.Account),
			scheduler.RoleCaregiver: make(map[string]scheduler.Account),
		},
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// AddDoses implements scheduler.InventoryLedger.
func (e *Engine) AddDoses(ctx context.Context, name string, count int) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	if name == "" {
		return fmt.Errorf("%w: vaccine name must not be empty", scheduler.ErrInvalidInput)
	}

	if count < 0 {
		return fmt.Errorf("%w: dose count must not be negative, got %d", scheduler.ErrInvalidInput, count)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.vaccines[name] += uint(count)
	e.debug(logMsgDosesAdded, logAttrVaccine, name, logAttrDoses, e.vaccines[name])

	return nil
}

// TryDecrement implements scheduler.InventoryLedger.
func (e *Engine) TryDecrement(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doses, ok := e.vaccines[name]
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrUnknownVaccine, name)
	}

	if doses == 0 {
		return fmt.Errorf("%w: %s", scheduler.ErrOutOfStock, name)
	}

	e.vaccines[name] = doses - 1
	e.debug(logMsgDoseTaken, logAttrVaccine, name, logAttrDoses, doses-1)

	return nil
}

// RestoreDose implements scheduler.InventoryLedger.
func (e *Engine) RestoreDose(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doses, ok := e.vaccines[name]
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrUnknownVaccine, name)
	}

	e.vaccines[name] = doses + 1
	e.debug(logMsgDoseRestored, logAttrVaccine, name, logAttrDoses, doses+1)

	return nil
}

// Vaccines implements scheduler.InventoryLedger.
func (e *Engine) Vaccines(ctx context.Context) ([]scheduler.Vaccine, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vaccines := make([]scheduler.Vaccine, 0, len(e.vaccines))
	for name, doses := range e.vaccines {
		vaccines = append(vaccines, scheduler.Vaccine{Name: name, Doses: doses})
	}

	slices.SortFunc(vaccines, func(a, b scheduler.Vaccine) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return vaccines, nil
}

// Publish implements scheduler.AvailabilityIndex.
func (e *Engine) Publish(ctx context.Context, caregiver string, date scheduler.Date) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	if caregiver == "" || date.IsZero() {
		return fmt.Errorf("%w: caregiver and date are required", scheduler.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	slot := scheduler.Slot{Caregiver: caregiver, Date: date}
	if _, exists := e.slots[slot]; !exists {
		e.slots[slot] = false
		e.debug(logMsgSlotPublished, logAttrCaregiver, caregiver, logAttrDate, date.String())
	}

	return nil
}

// OpenCaregivers implements scheduler.AvailabilityIndex.
// The open slots are read when ranging starts, so each range sees the current state.
func (e *Engine) OpenCaregivers(ctx context.Context, date scheduler.Date) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := ctx.Err(); err != nil {
			yield("", errors.Join(scheduler.ErrStorage, err))
			return
		}

		for _, caregiver := range e.openCaregivers(date) {
			if !yield(caregiver, nil) {
				return
			}
		}
	}
}

func (e *Engine) openCaregivers(date scheduler.Date) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	caregivers := make([]string, 0)
	for slot, claimed := range e.slots {
		if slot.Date == date && !claimed {
			caregivers = append(caregivers, slot.Caregiver)
		}
	}

	slices.Sort(caregivers)

	return caregivers
}

// Claim implements scheduler.AvailabilityIndex.
func (e *Engine) Claim(ctx context.Context, caregiver string, date scheduler.Date) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	slot := scheduler.Slot{Caregiver: caregiver, Date: date}
	claimed, exists := e.slots[slot]
	if !exists || claimed {
		return fmt.Errorf("%w: %s on %s", scheduler.ErrSlotUnavailable, caregiver, date)
	}

	e.slots[slot] = true
	e.debug(logMsgSlotClaimed, logAttrCaregiver, caregiver, logAttrDate, date.String())

	return nil
}

// Release implements scheduler.AvailabilityIndex.
func (e *Engine) Release(ctx context.Context, caregiver string, date scheduler.Date) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	slot := scheduler.Slot{Caregiver: caregiver, Date: date}
	if claimed := e.slots[slot]; !claimed {
		return fmt.Errorf("%w: %s on %s is not claimed", scheduler.ErrSlotUnavailable, caregiver, date)
	}

	e.slots[slot] = false
	e.debug(logMsgSlotReleased, logAttrCaregiver, caregiver, logAttrDate, date.String())

	return nil
}

// NextID implements scheduler.AppointmentStore.
func (e *Engine) NextID(ctx context.Context) (scheduler.AppointmentID, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastID++

	return e.lastID, nil
}

// Create implements scheduler.AppointmentStore.
func (e *Engine) Create(ctx context.Context, appointment scheduler.Appointment) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.appointments[appointment.ID]; exists {
		return fmt.Errorf("%w: appointment id %d already exists", scheduler.ErrStorage, appointment.ID)
	}

	e.appointments[appointment.ID] = appointment
	e.debug(logMsgAppointmentCreated, logAttrAppointmentID, appointment.ID)

	return nil
}

// Cancel implements scheduler.AppointmentStore.
func (e *Engine) Cancel(ctx context.Context, id scheduler.AppointmentID, requester string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	appointment, exists := e.appointments[id]
	if !exists || !appointment.IsOwnedBy(requester) {
		return fmt.Errorf("%w: appointment %d", scheduler.ErrNotFound, id)
	}

	delete(e.appointments, id)
	e.debug(logMsgAppointmentCanceled, logAttrAppointmentID, id)

	return nil
}

// ListFor implements scheduler.AppointmentStore.
func (e *Engine) ListFor(ctx context.Context, username string) ([]scheduler.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	appointments := make([]scheduler.Appointment, 0)
	for _, appointment := range e.appointments {
		if appointment.IsOwnedBy(username) {
			appointments = append(appointments, appointment)
		}
	}

	slices.SortFunc(appointments, func(a, b scheduler.Appointment) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return appointments, nil
}

// CreateAccount implements scheduler.AccountStore.
func (e *Engine) CreateAccount(ctx context.Context, account scheduler.Account) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(scheduler.ErrStorage, err)
	}

	accounts, ok := e.accounts[account.Role]
	if !ok || account.Username == "" {
		return fmt.Errorf("%w: account needs a username and a role", scheduler.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := accounts[account.Username]; exists {
		return fmt.Errorf("%w: %s", scheduler.ErrDuplicateUsername, account.Username)
	}

	accounts[account.Username] = account

	return nil
}

// Account implements scheduler.AccountStore.
func (e *Engine) Account(ctx context.Context, role scheduler.Role, username string) (scheduler.Account, error) {
	if err := ctx.Err(); err != nil {
		return scheduler.Account{}, errors.Join(scheduler.ErrStorage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	account, exists := e.accounts[role][username]
	if !exists {
		return scheduler.Account{}, fmt.Errorf("%w: %s %s", scheduler.ErrNotFound, role, username)
	}

	return account, nil
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

var _ scheduler.Engine = (*Engine)(nil)

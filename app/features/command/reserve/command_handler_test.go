package reserve_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/reserve"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
	"github.com/AntonStoeckl/vaccine-scheduler-go/testutil/helper"
)

var (
	march1 = scheduler.Date{Year: 2024, Month: time.March, Day: 1}
	bob    = scheduler.Identity{Username: "bob", Role: scheduler.RolePatient}
	carol  = scheduler.Identity{Username: "carol", Role: scheduler.RolePatient}
	alice  = scheduler.Identity{Username: "alice", Role: scheduler.RoleCaregiver}
)

// faultyStores injects failures into single steps of an otherwise working engine.
type faultyStores struct {
	*memengine.Engine
	claimErr   error
	nextIDErr  error
	createErr  error
	restoreErr error
	releaseErr error
}

func (f *faultyStores) Claim(ctx context.Context, caregiver string, date scheduler.Date) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	return f.Engine.Claim(ctx, caregiver, date)
}

func (f *faultyStores) NextID(ctx context.Context) (scheduler.AppointmentID, error) {
	if f.nextIDErr != nil {
		return 0, f.nextIDErr
	}
	return f.Engine.NextID(ctx)
}

func (f *faultyStores) Create(ctx context.Context, appointment scheduler.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Engine.Create(ctx, appointment)
}

func (f *faultyStores) RestoreDose(ctx context.Context, name string) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	return f.Engine.RestoreDose(ctx, name)
}

func (f *faultyStores) Release(ctx context.Context, caregiver string, date scheduler.Date) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	return f.Engine.Release(ctx, caregiver, date)
}

type publisherSpy struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *publisherSpy) Publish(_ context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func seededEngine(t *testing.T, doses int, caregivers ...string) *memengine.Engine {
	t.Helper()

	ctx := context.Background()
	engine := memengine.NewEngine()
	helper.GivenDosesWereAdded(t, ctx, engine, "pfizer", doses)
	helper.GivenAvailabilityWasPublished(t, ctx, engine, march1, caregivers...)

	return engine
}

func doses(t *testing.T, engine *memengine.Engine) uint {
	t.Helper()

	return helper.DosesOf(t, context.Background(), engine, "pfizer")
}

func openCaregivers(t *testing.T, engine *memengine.Engine) []string {
	t.Helper()

	return helper.OpenCaregiversOn(t, context.Background(), engine, march1)
}

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := seededEngine(t, 1, "alice")
	publisher := &publisherSpy{}
	fakeClock := time.Unix(0, 0).UTC()
	handler := reserve.NewCommandHandler(engine, reserve.WithPublisher(publisher), reserve.WithClock(func() time.Time {
		return fakeClock
	}))

	// act
	result, err := handler.Handle(ctx, reserve.BuildCommand(bob, "03-01-2024", "pfizer"))

	// assert
	require.NoError(t, err)
	assert.True(t, result.IsCommitted())
	assert.Equal(t, scheduler.AppointmentID(1), result.AppointmentID)
	assert.Equal(t, "alice", result.Caregiver)
	assert.Equal(t, march1, result.Date)
	assert.Equal(t, []reserve.State{
		reserve.Idle,
		reserve.Validating,
		reserve.SelectingCaregiver,
		reserve.ReservingDose,
		reserve.ClaimingSlot,
		reserve.RecordingAppointment,
		reserve.Committed,
	}, result.Trace)
	assert.Equal(t, 1, result.Execution().RetryAttempts)
	assert.Equal(t, uint(0), doses(t, engine))
	assert.Empty(t, openCaregivers(t, engine))

	appointments, err := engine.ListFor(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []scheduler.Appointment{
		{ID: 1, Patient: "bob", Caregiver: "alice", Vaccine: "pfizer", Date: march1},
	}, appointments)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notify.BuildAppointmentReserved(appointments[0], fakeClock), publisher.events[0])
}

func Test_CommandHandler_Handle_SecondPatient_NoAvailability(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := seededEngine(t, 1, "alice")
	handler := reserve.NewCommandHandler(engine)
	_, err := handler.Handle(ctx, reserve.BuildCommand(bob, "03-01-2024", "pfizer"))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, reserve.BuildCommand(carol, "03-01-2024", "pfizer"))

	// assert
	assert.ErrorIs(t, err, scheduler.ErrNoAvailability)
	assert.Equal(t, reserve.RolledBack, result.Final)
	assert.Equal(t, uint(0), doses(t, engine))
}

func Test_CommandHandler_Handle_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		command  reserve.Command
		expected error
	}{
		{"anonymous", reserve.BuildCommand(scheduler.Identity{}, "03-01-2024", "pfizer"), scheduler.ErrNotAuthenticated},
		{"caregiver", reserve.BuildCommand(alice, "03-01-2024", "pfizer"), scheduler.ErrNotAuthorized},
		{"malformed date", reserve.BuildCommand(bob, "2024-03-01", "pfizer"), scheduler.ErrInvalidInput},
		{"impossible date", reserve.BuildCommand(bob, "02-30-2024", "pfizer"), scheduler.ErrInvalidInput},
		{"empty vaccine", reserve.BuildCommand(bob, "03-01-2024", ""), scheduler.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			engine := seededEngine(t, 1, "alice")
			handler := reserve.NewCommandHandler(engine)

			// act
			result, err := handler.Handle(context.Background(), tc.command)

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, []reserve.State{reserve.Idle, reserve.Validating, reserve.RolledBack}, result.Trace)
			assert.Equal(t, uint(1), doses(t, engine))
			assert.Equal(t, []string{"alice"}, openCaregivers(t, engine))
		})
	}
}

func Test_CommandHandler_Handle_DoseFailures_ClaimNothing(t *testing.T) {
	testCases := []struct {
		name     string
		vaccine  string
		expected error
	}{
		{"out of stock", "pfizer", scheduler.ErrOutOfStock},
		{"unknown vaccine", "moderna", scheduler.ErrUnknownVaccine},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			engine := seededEngine(t, 0, "alice")
			handler := reserve.NewCommandHandler(engine)

			// act
			result, err := handler.Handle(context.Background(), reserve.BuildCommand(bob, "03-01-2024", tc.vaccine))

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, reserve.RolledBack, result.Final)
			assert.Equal(t, reserve.ReservingDose, result.Trace[len(result.Trace)-2])
			assert.Equal(t, []string{"alice"}, openCaregivers(t, engine))
		})
	}
}

func Test_CommandHandler_Handle_ClaimFails_RestoresDose(t *testing.T) {
	// arrange
	engine := seededEngine(t, 3, "alice")
	stores := &faultyStores{Engine: engine, claimErr: scheduler.ErrSlotUnavailable}
	handler := reserve.NewCommandHandler(stores)

	// act
	result, err := handler.Handle(context.Background(), reserve.BuildCommand(bob, "03-01-2024", "pfizer"))

	// assert
	assert.ErrorIs(t, err, scheduler.ErrSlotUnavailable)
	assert.Equal(t, reserve.ClaimingSlot, result.Trace[len(result.Trace)-2])
	assert.Equal(t, uint(3), doses(t, engine), "the dose is given back")
	assert.Equal(t, []string{"alice"}, openCaregivers(t, engine))
}

func Test_CommandHandler_Handle_RecordFails_ReleasesSlotAndRestoresDose(t *testing.T) {
	testCases := []struct {
		name   string
		stores func(engine *memengine.Engine) *faultyStores
	}{
		{"next id fails", func(engine *memengine.Engine) *faultyStores {
			return &faultyStores{Engine: engine, nextIDErr: errors.New("sequence gone")}
		}},
		{"create fails", func(engine *memengine.Engine) *faultyStores {
			return &faultyStores{Engine: engine, createErr: errors.Join(scheduler.ErrStorage, errors.New("disk full"))}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			engine := seededEngine(t, 3, "alice")
			handler := reserve.NewCommandHandler(tc.stores(engine))

			// act
			result, err := handler.Handle(context.Background(), reserve.BuildCommand(bob, "03-01-2024", "pfizer"))

			// assert
			assert.ErrorIs(t, err, scheduler.ErrStorage)
			assert.Equal(t, reserve.RecordingAppointment, result.Trace[len(result.Trace)-2])
			assert.Equal(t, uint(3), doses(t, engine))
			assert.Equal(t, []string{"alice"}, openCaregivers(t, engine))

			appointments, listErr := engine.ListFor(context.Background(), "bob")
			require.NoError(t, listErr)
			assert.Empty(t, appointments)
		})
	}
}

func Test_CommandHandler_Handle_CompensationFailure_IsJoinedAndLogged(t *testing.T) {
	// arrange
	engine := seededEngine(t, 3, "alice")
	restoreErr := errors.Join(scheduler.ErrStorage, errors.New("connection lost"))
	stores := &faultyStores{Engine: engine, createErr: scheduler.ErrStorage, restoreErr: restoreErr}
	logger := helper.NewLoggerSpy(true)
	handler := reserve.NewCommandHandler(
		stores,
		reserve.WithContextualLogger(logger),
		reserve.WithRetryOptions(shell.WithBaseDelay(0)),
	)

	// act
	result, err := handler.Handle(context.Background(), reserve.BuildCommand(bob, "03-01-2024", "pfizer"))

	// assert
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.ErrorIs(t, err, restoreErr)
	assert.Equal(t, 1, result.RetryAttempts, "no retry after a storage failure")
	assert.Equal(t, []string{"alice"}, openCaregivers(t, engine), "the slot was still released")

	record, found := logger.Find("error", "reservation compensation failed")
	require.True(t, found)
	assert.Equal(t, "restore_dose", record.Attr("step"))
}

func Test_CommandHandler_Handle_CanceledContext_StillCompensates(t *testing.T) {
	// arrange
	engine := seededEngine(t, 3, "alice")
	ctx, cancel := context.WithCancel(context.Background())
	stores := &cancelingStores{faultyStores: faultyStores{Engine: engine}, cancel: cancel}
	handler := reserve.NewCommandHandler(stores)

	// act
	_, err := handler.Handle(ctx, reserve.BuildCommand(bob, "03-01-2024", "pfizer"))

	// assert
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint(3), doses(t, engine))
	assert.Equal(t, []string{"alice"}, openCaregivers(t, engine))
}

// cancelingStores cancels the caller's context right after the slot was claimed.
type cancelingStores struct {
	faultyStores
	cancel context.CancelFunc
}

func (c *cancelingStores) Claim(ctx context.Context, caregiver string, date scheduler.Date) error {
	err := c.faultyStores.Claim(ctx, caregiver, date)
	c.cancel()
	return err
}

func Test_CommandHandler_Handle_Concurrent_NeverOversellsOrDoubleBooks(t *testing.T) {
	// setup
	caregivers := []string{"alice", "dave", "erin"}
	engine := seededEngine(t, 2, caregivers...)
	handler := reserve.NewCommandHandler(engine)

	// act
	var wg sync.WaitGroup
	results := make(chan reserve.Result, 12)
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			patient := scheduler.Identity{Username: "patient" + string(rune('a'+i)), Role: scheduler.RolePatient}
			result, err := handler.Handle(context.Background(), reserve.BuildCommand(patient, "03-01-2024", "pfizer"))
			if err != nil {
				assert.True(t,
					errors.Is(err, scheduler.ErrSlotUnavailable) ||
						errors.Is(err, scheduler.ErrOutOfStock) ||
						errors.Is(err, scheduler.ErrNoAvailability),
					"unexpected error: %v", err)
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	// assert
	committed := make(map[string]bool)
	for result := range results {
		if result.IsCommitted() {
			assert.False(t, committed[result.Caregiver], "caregiver %s booked twice", result.Caregiver)
			committed[result.Caregiver] = true
		}
	}

	assert.LessOrEqual(t, len(committed), 2)
	assert.GreaterOrEqual(t, len(committed), 1)
	assert.Equal(t, uint(2-len(committed)), doses(t, engine), "every failed attempt gave its dose back")
	assert.Len(t, openCaregivers(t, engine), len(caregivers)-len(committed))
}

func Test_CommandHandler_Handle_Concurrent_WithRetry_BooksEverySlot(t *testing.T) {
	// setup
	caregivers := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	engine := seededEngine(t, len(caregivers), caregivers...)
	handler := reserve.NewCommandHandler(engine, reserve.WithRetryOptions(
		shell.WithMaxAttempts(len(caregivers)),
		shell.WithBaseDelay(0),
	))

	// act
	var wg sync.WaitGroup
	errs := make(chan error, len(caregivers))
	for i := range caregivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			patient := scheduler.Identity{Username: "p" + caregivers[i], Role: scheduler.RolePatient}
			_, err := handler.Handle(context.Background(), reserve.BuildCommand(patient, "03-01-2024", "pfizer"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// assert
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, uint(0), doses(t, engine))
	assert.Empty(t, openCaregivers(t, engine))
}

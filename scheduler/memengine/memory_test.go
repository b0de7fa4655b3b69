package memengine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
)

var (
	march1 = scheduler.Date{Year: 2024, Month: time.March, Day: 1}
	march2 = scheduler.Date{Year: 2024, Month: time.March, Day: 2}
)

func Test_AddDoses_CreatesAndIncrements(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()

	// act
	assert.NoError(t, engine.AddDoses(ctx, "p1", 3))
	assert.NoError(t, engine.AddDoses(ctx, "p1", 2))
	assert.NoError(t, engine.AddDoses(ctx, "moderna", 0))

	// assert
	vaccines, err := engine.Vaccines(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []scheduler.Vaccine{{Name: "moderna", Doses: 0}, {Name: "p1", Doses: 5}}, vaccines)
}

func Test_AddDoses_RejectsNegativeCount_LedgerUnchanged(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	require.NoError(t, engine.AddDoses(ctx, "p1", 1))

	// act
	err := engine.AddDoses(ctx, "p2", -5)
	emptyNameErr := engine.AddDoses(ctx, "", 1)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrInvalidInput)
	assert.ErrorIs(t, emptyNameErr, scheduler.ErrInvalidInput)
	vaccines, _ := engine.Vaccines(ctx)
	assert.Equal(t, []scheduler.Vaccine{{Name: "p1", Doses: 1}}, vaccines)
}

func Test_TryDecrement_FailureModes(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	require.NoError(t, engine.AddDoses(ctx, "p1", 1))

	// act + assert
	assert.ErrorIs(t, engine.TryDecrement(ctx, "unknown"), scheduler.ErrUnknownVaccine)
	assert.NoError(t, engine.TryDecrement(ctx, "p1"))
	assert.ErrorIs(t, engine.TryDecrement(ctx, "p1"), scheduler.ErrOutOfStock)

	vaccines, _ := engine.Vaccines(ctx)
	assert.Equal(t, uint(0), vaccines[0].Doses)

	assert.NoError(t, engine.RestoreDose(ctx, "p1"))
	assert.ErrorIs(t, engine.RestoreDose(ctx, "unknown"), scheduler.ErrUnknownVaccine)
	vaccines, _ = engine.Vaccines(ctx)
	assert.Equal(t, uint(1), vaccines[0].Doses)
}

func Test_TryDecrement_Concurrent_NeverOversells(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	const doses = 10
	const callers = 50
	require.NoError(t, engine.AddDoses(ctx, "p1", doses))

	// act
	var successes atomic.Int32
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if engine.TryDecrement(ctx, "p1") == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(doses), successes.Load())
	vaccines, _ := engine.Vaccines(ctx)
	assert.Equal(t, uint(0), vaccines[0].Doses)
}

func Test_Publish_IsIdempotent_And_OpenCaregiversAreOrdered(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()

	// act
	assert.NoError(t, engine.Publish(ctx, "zoe", march1))
	assert.NoError(t, engine.Publish(ctx, "alice", march1))
	assert.NoError(t, engine.Publish(ctx, "alice", march1))
	assert.NoError(t, engine.Publish(ctx, "mike", march2))

	// assert
	caregivers, err := scheduler.CollectOpenCaregivers(ctx, engine, march1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "zoe"}, caregivers)

	first, found, err := scheduler.FirstOpenCaregiver(ctx, engine, march2)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "mike", first)

	assert.ErrorIs(t, engine.Publish(ctx, "", march1), scheduler.ErrInvalidInput)
}

func Test_OpenCaregivers_IsRestartable(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	require.NoError(t, engine.Publish(ctx, "alice", march1))
	require.NoError(t, engine.Publish(ctx, "bob", march1))
	seq := engine.OpenCaregivers(ctx, march1)

	// act
	firstRun := make([]string, 0)
	for caregiver, err := range seq {
		require.NoError(t, err)
		firstRun = append(firstRun, caregiver)
	}

	require.NoError(t, engine.Claim(ctx, "alice", march1))

	secondRun := make([]string, 0)
	for caregiver, err := range seq {
		require.NoError(t, err)
		secondRun = append(secondRun, caregiver)
	}

	// assert
	assert.Equal(t, []string{"alice", "bob"}, firstRun)
	assert.Equal(t, []string{"bob"}, secondRun)
}

func Test_Claim_AtMostOnce_And_Release(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	require.NoError(t, engine.Publish(ctx, "alice", march1))

	// act + assert
	assert.ErrorIs(t, engine.Claim(ctx, "alice", march2), scheduler.ErrSlotUnavailable, "never published")
	assert.NoError(t, engine.Claim(ctx, "alice", march1))
	assert.ErrorIs(t, engine.Claim(ctx, "alice", march1), scheduler.ErrSlotUnavailable, "already claimed")

	assert.NoError(t, engine.Publish(ctx, "alice", march1), "republishing a claimed slot is a no-op")
	_, found, _ := scheduler.FirstOpenCaregiver(ctx, engine, march1)
	assert.False(t, found, "republishing must not re-open a claimed slot")

	assert.NoError(t, engine.Release(ctx, "alice", march1))
	assert.ErrorIs(t, engine.Release(ctx, "alice", march1), scheduler.ErrSlotUnavailable)
	assert.NoError(t, engine.Claim(ctx, "alice", march1))
}

func Test_Claim_Concurrent_ExactlyOneWinner(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	require.NoError(t, engine.Publish(ctx, "alice", march1))

	// act
	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if engine.Claim(ctx, "alice", march1) == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), winners.Load())
}

func Test_NextID_Concurrent_IsUnique(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	const callers = 100

	// act
	ids := make(chan scheduler.AppointmentID, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := engine.NextID(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	// assert
	seen := make(map[scheduler.AppointmentID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, callers)
}

func Test_Appointments_Create_List_Cancel(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()

	first := scheduler.Appointment{ID: 2, Patient: "bob", Caregiver: "alice", Vaccine: "p1", Date: march1}
	second := scheduler.Appointment{ID: 1, Patient: "carol", Caregiver: "alice", Vaccine: "p1", Date: march2}
	require.NoError(t, engine.Create(ctx, first))
	require.NoError(t, engine.Create(ctx, second))

	// act + assert
	assert.ErrorIs(t, engine.Create(ctx, first), scheduler.ErrStorage, "duplicate id")

	forAlice, err := engine.ListFor(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, []scheduler.Appointment{second, first}, forAlice)

	forBob, err := engine.ListFor(ctx, "bob")
	assert.NoError(t, err)
	assert.Equal(t, []scheduler.Appointment{first}, forBob)

	assert.ErrorIs(t, engine.Cancel(ctx, 2, "carol"), scheduler.ErrNotFound, "not the owner")
	assert.NoError(t, engine.Cancel(ctx, 2, "bob"))
	assert.ErrorIs(t, engine.Cancel(ctx, 2, "bob"), scheduler.ErrNotFound, "already canceled")
	assert.NoError(t, engine.Cancel(ctx, 1, "alice"), "caregiver may cancel")

	forAlice, _ = engine.ListFor(ctx, "alice")
	assert.Empty(t, forAlice)
}

func Test_Accounts(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	patient := scheduler.Account{Username: "bob", Role: scheduler.RolePatient, Salt: []byte("s"), Hash: []byte("h")}

	// act + assert
	assert.NoError(t, engine.CreateAccount(ctx, patient))
	assert.ErrorIs(t, engine.CreateAccount(ctx, patient), scheduler.ErrDuplicateUsername)
	assert.NoError(t, engine.CreateAccount(ctx, scheduler.Account{Username: "bob", Role: scheduler.RoleCaregiver}), "roles have separate namespaces")
	assert.ErrorIs(t, engine.CreateAccount(ctx, scheduler.Account{Username: "x"}), scheduler.ErrInvalidInput)

	loaded, err := engine.Account(ctx, scheduler.RolePatient, "bob")
	assert.NoError(t, err)
	assert.Equal(t, patient, loaded)

	_, err = engine.Account(ctx, scheduler.RolePatient, "nobody")
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

func Test_CanceledContext_IsStorageError(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := memengine.NewEngine()

	// act
	err := engine.AddDoses(ctx, "p1", 1)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}

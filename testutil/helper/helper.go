package helper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/credentials"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// CheapHasher derives keys fast enough for tests.
func CheapHasher() credentials.Hasher {
	return credentials.NewHasher(credentials.WithCost(1, 1024))
}

// GivenUniqueUsername returns a username that no other test uses.
func GivenUniqueUsername(t testing.TB, prefix string) string {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return prefix + "-" + id.String()[:13]
}

func GivenDosesWereAdded(t testing.TB, ctx context.Context, ledger scheduler.InventoryLedger, vaccine string, count int) {
	require.NoError(t, ledger.AddDoses(ctx, vaccine, count), "error in arranging test data")
}

func GivenAvailabilityWasPublished(
	t testing.TB,
	ctx context.Context,
	index scheduler.AvailabilityIndex,
	date scheduler.Date,
	caregivers ...string,
) {
	for _, caregiver := range caregivers {
		require.NoError(t, index.Publish(ctx, caregiver, date), "error in arranging test data")
	}
}

// GivenAccountWasRegistered stores an account whose credentials were derived with CheapHasher.
func GivenAccountWasRegistered(
	t testing.TB,
	ctx context.Context,
	accounts scheduler.AccountStore,
	role scheduler.Role,
	username string,
	password string,
) scheduler.Identity {
	salt, hash, err := CheapHasher().Derive(password)
	require.NoError(t, err, "error in arranging test data")

	account := scheduler.Account{Username: username, Role: role, Salt: salt, Hash: hash}
	require.NoError(t, accounts.CreateAccount(ctx, account), "error in arranging test data")

	return scheduler.Identity{Username: username, Role: role}
}

// DosesOf returns the current dose count of vaccine, failing the test if it is unknown.
func DosesOf(t testing.TB, ctx context.Context, ledger scheduler.InventoryLedger, vaccine string) uint {
	vaccines, err := ledger.Vaccines(ctx)
	require.NoError(t, err)

	for _, v := range vaccines {
		if v.Name == vaccine {
			return v.Doses
		}
	}

	require.Failf(t, "unknown vaccine", "%s is not in the ledger", vaccine)

	return 0
}

// OpenCaregiversOn collects the open caregivers of date.
func OpenCaregiversOn(t testing.TB, ctx context.Context, index scheduler.AvailabilityIndex, date scheduler.Date) []string {
	caregivers, err := scheduler.CollectOpenCaregivers(ctx, index, date)
	require.NoError(t, err)

	return caregivers
}

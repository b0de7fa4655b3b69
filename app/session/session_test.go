package session_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

var bob = scheduler.Identity{Username: "bob", Role: scheduler.RolePatient}

func Test_Session_LoginLogout(t *testing.T) {
	// arrange
	s := session.New()

	// act & assert
	assert.True(t, s.Current().IsZero())
	assert.ErrorIs(t, s.Logout(), scheduler.ErrNotAuthenticated)
	assert.ErrorIs(t, s.Login(scheduler.Identity{}), scheduler.ErrInvalidInput)

	require.NoError(t, s.Login(bob))
	assert.Equal(t, bob, s.Current())

	alice := scheduler.Identity{Username: "alice", Role: scheduler.RoleCaregiver}
	assert.ErrorIs(t, s.Login(alice), scheduler.ErrAlreadyAuthenticated)
	assert.Equal(t, bob, s.Current(), "a failed login keeps the previous identity")

	require.NoError(t, s.Logout())
	assert.True(t, s.Current().IsZero())
}

func Test_Session_ConcurrentLogin_OneWins(t *testing.T) {
	// arrange
	s := session.New()
	var wg sync.WaitGroup
	results := make(chan error, 10)

	// act
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Login(bob)
		}()
	}
	wg.Wait()
	close(results)

	// assert
	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, scheduler.ErrAlreadyAuthenticated)
		}
	}
	assert.Equal(t, 1, successes)
}

func Test_Manager_SessionsAreIsolated(t *testing.T) {
	// arrange
	m := session.NewManager()
	firstToken, first := m.Create()
	secondToken, second := m.Create()

	// act
	require.NoError(t, first.Login(bob))

	// assert
	assert.NotEqual(t, firstToken, secondToken)
	assert.True(t, second.Current().IsZero())

	loaded, err := m.Get(firstToken)
	require.NoError(t, err)
	assert.Same(t, first, loaded)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Delete(firstToken))
	_, err = m.Get(firstToken)
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
	assert.ErrorIs(t, m.Delete(firstToken), scheduler.ErrNotFound)
	_, err = m.Get(uuid.New())
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

package caregiverschedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/query/caregiverschedule"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
)

var (
	march1 = scheduler.Date{Year: 2024, Month: time.March, Day: 1}
	bob    = scheduler.Identity{Username: "bob", Role: scheduler.RolePatient}
)

func Test_CaregiverSchedule_ListsOpenCaregiversAndVaccines(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := memengine.NewEngine()
	handler := caregiverschedule.NewQueryHandler(engine)

	// arrange
	require.NoError(t, engine.Publish(ctx, "zoe", march1))
	require.NoError(t, engine.Publish(ctx, "alice", march1))
	require.NoError(t, engine.Publish(ctx, "mike", march1))
	require.NoError(t, engine.Claim(ctx, "mike", march1))
	require.NoError(t, engine.AddDoses(ctx, "pfizer", 2))
	require.NoError(t, engine.AddDoses(ctx, "moderna", 0))

	// act
	schedule, err := handler.Handle(ctx, caregiverschedule.BuildQuery(bob, "03-01-2024"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, march1, schedule.Date)
	assert.Equal(t, []string{"alice", "zoe"}, schedule.Caregivers)
	assert.Equal(t, []scheduler.Vaccine{{Name: "moderna", Doses: 0}, {Name: "pfizer", Doses: 2}}, schedule.Vaccines)
}

func Test_CaregiverSchedule_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		query caregiverschedule.Query
		want  error
	}{
		{"anonymous", caregiverschedule.BuildQuery(scheduler.Identity{}, "03-01-2024"), scheduler.ErrNotAuthenticated},
		{"invalid date", caregiverschedule.BuildQuery(bob, "13-01-2024"), scheduler.ErrInvalidInput},
		{"nobody open", caregiverschedule.BuildQuery(bob, "03-02-2024"), scheduler.ErrNoAvailability},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			engine := memengine.NewEngine()
			require.NoError(t, engine.Publish(ctx, "alice", march1))

			// act
			_, err := caregiverschedule.NewQueryHandler(engine).Handle(ctx, tc.query)

			// assert
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

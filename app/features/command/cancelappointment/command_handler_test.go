package cancelappointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/cancelappointment"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
)

var (
	march1 = scheduler.Date{Year: 2024, Month: time.March, Day: 1}
	alice  = scheduler.Identity{Username: "alice", Role: scheduler.RoleCaregiver}
	bob    = scheduler.Identity{Username: "bob", Role: scheduler.RolePatient}
	carol  = scheduler.Identity{Username: "carol", Role: scheduler.RolePatient}
)

type publisherStub struct {
	events []notify.Event
}

func (p *publisherStub) Publish(_ context.Context, event notify.Event) error {
	p.events = append(p.events, event)
	return nil
}

func arrangeAppointment(t *testing.T, engine *memengine.Engine) scheduler.AppointmentID {
	t.Helper()

	ctx := context.Background()
	id, err := engine.NextID(ctx)
	require.NoError(t, err)
	require.NoError(t, engine.Create(ctx, scheduler.Appointment{
		ID: id, Patient: "bob", Caregiver: "alice", Vaccine: "pfizer", Date: march1,
	}))

	return id
}

func Test_CancelAppointment_ByEitherParticipant(t *testing.T) {
	for _, requester := range []scheduler.Identity{bob, alice} {
		t.Run(requester.Username, func(t *testing.T) {
			// setup
			ctx := context.Background()
			engine := memengine.NewEngine()
			publisher := &publisherStub{}
			handler := cancelappointment.NewCommandHandler(engine, cancelappointment.WithPublisher(publisher))

			// arrange
			id := arrangeAppointment(t, engine)

			// act
			result, err := handler.Handle(ctx, cancelappointment.BuildCommand(requester, "1"))

			// assert
			require.NoError(t, err)
			assert.Equal(t, id, result.AppointmentID)

			remaining, listErr := engine.ListFor(ctx, "bob")
			assert.NoError(t, listErr)
			assert.Empty(t, remaining)
			assert.Equal(t, []notify.Event{notify.AppointmentCanceled{
				AppointmentID: id,
				CanceledBy:    requester.Username,
				OccurredAt:    publisher.events[0].HasOccurredAt(),
			}}, publisher.events)
		})
	}
}

func Test_CancelAppointment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		command cancelappointment.Command
		want    error
	}{
		{"anonymous", cancelappointment.BuildCommand(scheduler.Identity{}, "1"), scheduler.ErrNotAuthenticated},
		{"not the owner", cancelappointment.BuildCommand(carol, "1"), scheduler.ErrNotFound},
		{"unknown id", cancelappointment.BuildCommand(bob, "42"), scheduler.ErrNotFound},
		{"malformed id", cancelappointment.BuildCommand(bob, "one"), scheduler.ErrInvalidInput},
		{"negative id", cancelappointment.BuildCommand(bob, "-1"), scheduler.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			engine := memengine.NewEngine()
			publisher := &publisherStub{}
			handler := cancelappointment.NewCommandHandler(engine, cancelappointment.WithPublisher(publisher))

			// arrange
			arrangeAppointment(t, engine)

			// act
			_, err := handler.Handle(ctx, tc.command)

			// assert
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, publisher.events)

			remaining, listErr := engine.ListFor(ctx, "bob")
			assert.NoError(t, listErr)
			assert.Len(t, remaining, 1)
		})
	}
}

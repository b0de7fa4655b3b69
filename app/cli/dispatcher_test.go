package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/cli"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/credentials"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
	"github.com/AntonStoeckl/vaccine-scheduler-go/testutil/helper"
)

func newDispatcher(t *testing.T, cfg cli.HandlersConfig) cli.Dispatcher {
	t.Helper()

	hasher := credentials.NewHasher(credentials.WithCost(1, 1024))
	cfg.Hasher = &hasher

	handlers, err := cli.NewHandlers(memengine.NewEngine(), cfg)
	require.NoError(t, err)

	return cli.NewDispatcher(handlers)
}

type step struct {
	session *session.Session
	line    string
	want    string
}

func runSteps(t *testing.T, dispatcher cli.Dispatcher, steps []step) {
	t.Helper()

	for _, st := range steps {
		output := dispatcher.Execute(context.Background(), st.session, st.line)
		assert.Equal(t, st.want, output.Text, st.line)
	}
}

func Test_Dispatcher_ReservationScenario(t *testing.T) {
	// setup
	dispatcher := newDispatcher(t, cli.HandlersConfig{})
	caregiver := session.New()
	bob := session.New()
	carol := session.New()

	// act + assert
	runSteps(t, dispatcher, []step{
		{caregiver, "create_caregiver alice pw", "Created user alice"},
		{caregiver, "create_caregiver Alice pw", "Username taken, try again!"},
		{caregiver, "login_caregiver alice wrong", "Login failed."},
		{caregiver, "login_caregiver alice pw", "Logged in as: alice"},
		{caregiver, "login_caregiver alice pw", "User already logged in."},
		{caregiver, "add_doses p1 1", "Doses updated!"},
		{caregiver, "add_doses p2 -5", "Please try again!"},
		{caregiver, "upload_availability 03-01-2024", "Availability uploaded!"},
		{caregiver, "upload_availability 02-30-2024", "Please enter a valid date!\nPlease try again!"},

		{bob, "reserve 03-01-2024 p1", "Please login first!"},
		{bob, "create_patient bob pw", "Created user bob"},
		{bob, "login_patient bob pw", "Logged in as: bob"},
		{bob, "search_caregiver_schedule 03-01-2024",
			"Schedule search successful.\nAvailable caregivers:\nalice\n========Available Vaccines========\np1: 1"},
		{bob, "reserve 03-01-2024", "Reservation failed.\nIncorrect number of inputs"},
		{bob, "reserve 03-01-2024 p1", "Appointment ID: 1, Caregiver username: alice"},
		{bob, "show_appointments", "1 03-01-2024 bob alice p1"},

		{carol, "create_patient carol pw", "Created user carol"},
		{carol, "login_patient carol pw", "Logged in as: carol"},
		{carol, "reserve 03-01-2024 p1", "No available caregivers found for that date"},
		{carol, "search_caregiver_schedule 03-01-2024", "No available caregivers found for that date"},
		{carol, "cancel 1", "Appointment not found."},
		{carol, "show_appointments", "No appointments scheduled."},

		{caregiver, "reserve 03-01-2024 p1", "Please login as a patient!"},
		{bob, "add_doses p1 5", "Please login as a caregiver first!"},
		{bob, "cancel 1", "Appointment cancelled!"},
		{bob, "cancel 1", "Appointment not found."},
		{bob, "logout", "Successfully logged out!"},
		{bob, "logout", "Please login first."},
		{bob, "frobnicate", "Invalid operation name!"},
	})
}

func Test_Dispatcher_OutOfStockAndUnknownVaccine(t *testing.T) {
	// setup
	dispatcher := newDispatcher(t, cli.HandlersConfig{})
	caregiver := session.New()
	patient := session.New()

	// act + assert
	runSteps(t, dispatcher, []step{
		{caregiver, "create_caregiver alice pw", "Created user alice"},
		{caregiver, "login_caregiver alice pw", "Logged in as: alice"},
		{caregiver, "add_doses p1 0", "Doses updated!"},
		{caregiver, "upload_availability 03-01-2024", "Availability uploaded!"},
		{patient, "create_patient bob pw", "Created user bob"},
		{patient, "login_patient bob pw", "Logged in as: bob"},
		{patient, "reserve 03-01-2024 p1", "Not enough available doses!"},
		{patient, "reserve 03-01-2024 p9", "No such vaccine"},
		{patient, "reserve 3/1/2024 p1", "Please enter a valid date!\nPlease try again!"},
	})
}

func Test_Dispatcher_LogsThroughObservableWrappers(t *testing.T) {
	// setup
	logger := helper.NewLoggerSpy(true)
	metrics := helper.NewMetricsCollectorSpy(true)
	dispatcher := newDispatcher(t, cli.HandlersConfig{
		Observability: cli.ObservabilityConfig{ContextualLogger: logger, MetricsCollector: metrics},
	})

	// act
	output := dispatcher.Execute(context.Background(), session.New(), "create_patient bob pw")

	// assert
	assert.Equal(t, "Created user bob", output.Text)
	assert.True(t, logger.HasLog("info", shell.LogMsgCommandCompleted))
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithStatus(shell.StatusSuccess).
		WithLabel(shell.LogAttrCommandType, "RegisterUser").
		Assert())
}

func Test_RunREPL(t *testing.T) {
	// setup
	dispatcher := newDispatcher(t, cli.HandlersConfig{})
	in := strings.NewReader("create_patient bob pw\n\nquit\nhelp\n")
	var out bytes.Buffer

	// act
	err := cli.RunREPL(context.Background(), dispatcher, in, &out)

	// assert
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "\nWelcome to the COVID-19 Vaccine Reservation Scheduling Application!"))
	assert.True(t, strings.HasSuffix(out.String(), "> Created user bob\n> > Bye!\n"), out.String())
}

func Test_RunREPL_StopsAtEOF(t *testing.T) {
	// setup
	dispatcher := newDispatcher(t, cli.HandlersConfig{})
	var out bytes.Buffer

	// act
	err := cli.RunREPL(context.Background(), dispatcher, strings.NewReader("help"), &out)

	// assert
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "> show_appointments")
}

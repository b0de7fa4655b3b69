package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/adddoses"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/cancelappointment"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/login"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/registeruser"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/reserve"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/uploadavailability"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/query/appointmentsbyuser"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/query/caregiverschedule"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Output is what a single command line produced.
type Output struct {
	Text string
	Quit bool
}

func say(lines ...string) Output {
	return Output{Text: strings.Join(lines, "\n")}
}

// Dispatcher executes command lines against a caller's Session.
// It is safe for concurrent use as long as every caller brings its own Session.
type Dispatcher struct {
	handlers Handlers
}

// NewDispatcher creates a Dispatcher over the given handlers.
func NewDispatcher(handlers Handlers) Dispatcher {
	return Dispatcher{handlers: handlers}
}

// Usage returns the list of supported commands.
func Usage() string {
	return usage
}

// Execute parses and runs one line. Failures are rendered as messages, never returned,
// so a failed command never ends the session.
func (d Dispatcher) Execute(ctx context.Context, s *session.Session, raw string) Output {
	line := Parse(raw)

	switch line.Operation {
	case "":
		return Output{}
	case OpCreatePatient:
		return d.createUser(ctx, scheduler.RolePatient, line)
	case OpCreateCaregiver:
		return d.createUser(ctx, scheduler.RoleCaregiver, line)
	case OpLoginPatient:
		return d.login(ctx, s, scheduler.RolePatient, line)
	case OpLoginCaregiver:
		return d.login(ctx, s, scheduler.RoleCaregiver, line)
	case OpSearchCaregiverSchedule:
		return d.searchCaregiverSchedule(ctx, s, line)
	case OpReserve:
		return d.reserve(ctx, s, line)
	case OpUploadAvailability:
		return d.uploadAvailability(ctx, s, line)
	case OpCancel:
		return d.cancel(ctx, s, line)
	case OpAddDoses:
		return d.addDoses(ctx, s, line)
	case OpShowAppointments:
		return d.showAppointments(ctx, s, line)
	case OpLogout:
		return logout(s, line)
	case OpHelp:
		return say(usage)
	case OpQuit:
		return Output{Text: msgBye, Quit: true}
	default:
		return say(msgInvalidOperation)
	}
}

func (d Dispatcher) createUser(ctx context.Context, role scheduler.Role, line Line) Output {
	if line.Arity() != 3 {
		return say(msgCreateFailed)
	}

	username := line.Args[0]
	_, err := d.handlers.RegisterUser.Handle(ctx, registeruser.BuildCommand(role, username, line.Args[1]))

	switch {
	case err == nil:
		return say(fmt.Sprintf(msgCreatedUser, username))
	case errors.Is(err, scheduler.ErrDuplicateUsername):
		return say(msgUsernameTaken)
	case errors.Is(err, scheduler.ErrStorage):
		return say(msgCreateFailed, msgTryAgain)
	default:
		return say(msgCreateFailed)
	}
}

func (d Dispatcher) login(ctx context.Context, s *session.Session, role scheduler.Role, line Line) Output {
	if !s.Current().IsZero() {
		return say(msgAlreadyLoggedIn)
	}

	if line.Arity() != 3 {
		return say(msgLoginFailed)
	}

	result, err := d.handlers.Login.Handle(ctx, login.BuildCommand(s.Current(), role, line.Args[0], line.Args[1]))
	if err == nil {
		err = s.Login(result.Identity)
	}

	switch {
	case err == nil:
		return say(fmt.Sprintf(msgLoggedInAs, result.Identity.Username))
	case errors.Is(err, scheduler.ErrAlreadyAuthenticated):
		return say(msgAlreadyLoggedIn)
	case errors.Is(err, scheduler.ErrStorage):
		return say(msgLoginFailed, msgTryAgain)
	default:
		return say(msgLoginFailed)
	}
}

func (d Dispatcher) searchCaregiverSchedule(ctx context.Context, s *session.Session, line Line) Output {
	if s.Current().IsZero() {
		return say(msgLogInFirst)
	}

	if line.Arity() != 2 {
		return say(msgTryAgain)
	}

	schedule, err := d.handlers.CaregiverSchedule.Handle(ctx, caregiverschedule.BuildQuery(s.Current(), line.Args[0]))

	switch {
	case err == nil:
		lines := []string{msgScheduleFound, msgAvailableCaregivers, strings.Join(schedule.Caregivers, " "), msgAvailableVaccines}
		for _, vaccine := range schedule.Vaccines {
			lines = append(lines, fmt.Sprintf(msgVaccineLine, vaccine.Name, vaccine.Doses))
		}

		return say(lines...)
	case errors.Is(err, scheduler.ErrNoAvailability):
		return say(msgNoCaregivers)
	default:
		return say(msgTryAgain)
	}
}

func (d Dispatcher) reserve(ctx context.Context, s *session.Session, line Line) Output {
	requester := s.Current()

	switch {
	case requester.IsZero():
		return say(msgLoginFirst)
	case !requester.IsPatient():
		return say(msgLoginAsPatient)
	case line.Arity() != 3:
		return say(msgReservationFailed, msgIncorrectInputs)
	}

	result, err := d.handlers.Reserve.Handle(ctx, reserve.BuildCommand(requester, line.Args[0], line.Args[1]))

	switch {
	case err == nil:
		return say(fmt.Sprintf(msgReserved, result.AppointmentID, result.Caregiver))
	case errors.Is(err, scheduler.ErrStorage):
		return say(msgReservationFailed, msgTryAgain)
	case errors.Is(err, scheduler.ErrInvalidInput):
		return say(msgInvalidDate, msgTryAgain)
	case errors.Is(err, scheduler.ErrNoAvailability):
		return say(msgNoCaregivers)
	case errors.Is(err, scheduler.ErrUnknownVaccine):
		return say(msgNoSuchVaccine)
	case errors.Is(err, scheduler.ErrOutOfStock):
		return say(msgOutOfStock)
	case errors.Is(err, scheduler.ErrSlotUnavailable):
		return say(msgSlotTaken, msgTryAgain)
	default:
		return say(msgReservationFailed, msgTryAgain)
	}
}

func (d Dispatcher) uploadAvailability(ctx context.Context, s *session.Session, line Line) Output {
	if !s.Current().IsCaregiver() {
		return say(msgLoginAsCaregiver)
	}

	if line.Arity() != 2 {
		return say(msgTryAgain)
	}

	_, err := d.handlers.UploadAvailability.Handle(ctx, uploadavailability.BuildCommand(s.Current(), line.Args[0]))

	switch {
	case err == nil:
		return say(msgAvailabilityAdded)
	case errors.Is(err, scheduler.ErrInvalidInput):
		return say(msgInvalidDate, msgTryAgain)
	default:
		return say(msgTryAgain)
	}
}

func (d Dispatcher) cancel(ctx context.Context, s *session.Session, line Line) Output {
	if line.Arity() != 2 {
		return say(msgTryAgain)
	}

	if s.Current().IsZero() {
		return say(msgLoginFirst)
	}

	_, err := d.handlers.CancelAppointment.Handle(ctx, cancelappointment.BuildCommand(s.Current(), line.Args[0]))

	switch {
	case err == nil:
		return say(msgCanceled)
	case errors.Is(err, scheduler.ErrNotFound):
		return say(msgAppointmentNotFound)
	default:
		return say(msgTryAgain)
	}
}

func (d Dispatcher) addDoses(ctx context.Context, s *session.Session, line Line) Output {
	if !s.Current().IsCaregiver() {
		return say(msgLoginAsCaregiver)
	}

	if line.Arity() != 3 {
		return say(msgTryAgain)
	}

	_, err := d.handlers.AddDoses.Handle(ctx, adddoses.BuildCommand(s.Current(), line.Args[0], line.Args[1]))
	if err != nil {
		return say(msgTryAgain)
	}

	return say(msgDosesUpdated)
}

func (d Dispatcher) showAppointments(ctx context.Context, s *session.Session, line Line) Output {
	if line.Arity() != 1 {
		return say(msgSearchFailed, msgIncorrectInputs, msgTryAgain)
	}

	if s.Current().IsZero() {
		return say(msgLoginFirst)
	}

	result, err := d.handlers.AppointmentsByUser.Handle(ctx, appointmentsbyuser.BuildQuery(s.Current()))
	if err != nil {
		return say(msgTryAgain)
	}

	if result.Count == 0 {
		return say(msgNoAppointments)
	}

	lines := make([]string, 0, result.Count)
	for _, a := range result.Appointments {
		lines = append(lines, fmt.Sprintf(msgAppointmentLine, a.ID, a.Date, a.Patient, a.Caregiver, a.Vaccine))
	}

	return say(lines...)
}

func logout(s *session.Session, line Line) Output {
	if line.Arity() != 1 {
		return say(msgTryAgain)
	}

	if err := s.Logout(); err != nil {
		return say(msgLogoutFirst)
	}

	return say(msgLoggedOut)
}

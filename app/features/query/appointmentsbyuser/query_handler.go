package appointmentsbyuser

import (
	"context"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// QueryHandler reads the AppointmentStore.
type QueryHandler struct {
	appointments scheduler.AppointmentStore
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(appointments scheduler.AppointmentStore) QueryHandler {
	return QueryHandler{appointments: appointments}
}

// Handle lists the requester's appointments.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Appointments, error) {
	if query.Requester.IsZero() {
		return Appointments{}, scheduler.ErrNotAuthenticated
	}

	appointments, err := h.appointments.ListFor(ctx, query.Requester.Username)
	if err != nil {
		return Appointments{}, err
	}

	return Appointments{
		Username:     query.Requester.Username,
		Appointments: appointments,
		Count:        len(appointments),
	}, nil
}

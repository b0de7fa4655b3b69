package appointmentsbyuser

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	queryType = "AppointmentsByUser"
)

// Query represents the intent to list the appointments of the requester, as patient or caregiver.
type Query struct {
	Requester scheduler.Identity
}

// BuildQuery creates a new Query for the requester.
func BuildQuery(requester scheduler.Identity) Query {
	return Query{
		Requester: requester,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

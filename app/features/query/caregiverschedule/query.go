package caregiverschedule

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	queryType = "CaregiverSchedule"
)

// Query represents the intent to search the schedule for a date given as MM-DD-YYYY.
type Query struct {
	Requester scheduler.Identity
	Date      string
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(requester scheduler.Identity, date string) Query {
	return Query{
		Requester: requester,
		Date:      date,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

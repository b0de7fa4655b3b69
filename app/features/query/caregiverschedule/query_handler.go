package caregiverschedule

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Stores defines the ports needed by the QueryHandler.
type Stores interface {
	scheduler.InventoryLedger
	scheduler.AvailabilityIndex
}

// QueryHandler reads the Availability Index and the Inventory Ledger.
// The two reads are not one snapshot, a concurrent reservation may show up in only one of them.
type QueryHandler struct {
	stores Stores
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(stores Stores) QueryHandler {
	return QueryHandler{stores: stores}
}

// Handle returns the Schedule. A date without open caregivers fails with ErrNoAvailability.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Schedule, error) {
	if query.Requester.IsZero() {
		return Schedule{}, scheduler.ErrNotAuthenticated
	}

	date, err := scheduler.ParseDate(query.Date)
	if err != nil {
		return Schedule{}, err
	}

	caregivers, err := scheduler.CollectOpenCaregivers(ctx, h.stores, date)
	if err != nil {
		return Schedule{}, err
	}

	if len(caregivers) == 0 {
		return Schedule{}, fmt.Errorf("%w: %s", scheduler.ErrNoAvailability, date)
	}

	vaccines, err := h.stores.Vaccines(ctx)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{Date: date, Caregivers: caregivers, Vaccines: vaccines}, nil
}

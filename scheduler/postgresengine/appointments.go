package postgresengine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/postgresengine/internal/adapters"
)

// NextID draws the next value from the appointment id sequence.
func (e Engine) NextID(ctx context.Context) (scheduler.AppointmentID, error) {
	ctx, observer := e.startOperation(ctx, operationNextID, nil)

	var id int64
	found, err := e.queryRow(ctx, operationNextID, e.dialect.Select(
		goqu.Func("nextval", pgx.Identifier{e.tables.sequence()}.Sanitize()),
	), &id)
	if err != nil {
		return 0, observer.finish(err)
	}

	if !found || id <= 0 {
		return 0, observer.finish(fmt.Errorf("%w: sequence %s returned no value", scheduler.ErrStorage, e.tables.sequence()))
	}

	return scheduler.AppointmentID(id), observer.finish(nil)
}

// Create inserts the appointment. Any failure, including a duplicate id, is ErrStorage.
func (e Engine) Create(ctx context.Context, appointment scheduler.Appointment) error {
	ctx, observer := e.startOperation(ctx, operationCreate, map[string]string{
		spanAttrID:        strconv.FormatUint(appointment.ID, 10),
		spanAttrCaregiver: appointment.Caregiver,
		spanAttrVaccine:   appointment.Vaccine,
		spanAttrDate:      appointment.Date.String(),
	})

	statement, err := e.toSQL(ctx, e.dialect.
		Insert(e.tables.appointments).
		Rows(goqu.Record{
			colID:                appointment.ID,
			colDate:              isoDate(appointment.Date),
			colPatientUsername:   appointment.Patient,
			colCaregiverUsername: appointment.Caregiver,
			colVaccineName:       appointment.Vaccine,
		}),
	)
	if err != nil {
		return observer.finish(err)
	}

	_, err = e.exec(ctx, operationCreate, statement)

	return observer.finish(err)
}

// Cancel deletes the appointment only if requester is its patient or caregiver.
// Missing and foreign appointments are indistinguishable to the caller.
func (e Engine) Cancel(ctx context.Context, id scheduler.AppointmentID, requester string) error {
	ctx, observer := e.startOperation(ctx, operationCancel, map[string]string{spanAttrID: strconv.FormatUint(id, 10)})

	statement, err := e.toSQL(ctx, e.dialect.
		Delete(e.tables.appointments).
		Where(
			goqu.C(colID).Eq(id),
			goqu.Or(
				goqu.C(colPatientUsername).Eq(requester),
				goqu.C(colCaregiverUsername).Eq(requester),
			),
		),
	)
	if err != nil {
		return observer.finish(err)
	}

	rowsAffected, err := e.exec(ctx, operationCancel, statement)
	if err != nil {
		return observer.finish(err)
	}

	if rowsAffected == 0 {
		return observer.finish(fmt.Errorf("%w: appointment %d", scheduler.ErrNotFound, id))
	}

	return observer.finish(nil)
}

// ListFor returns the appointments of username ordered by id.
func (e Engine) ListFor(ctx context.Context, username string) ([]scheduler.Appointment, error) {
	ctx, observer := e.startOperation(ctx, operationListFor, nil)

	statement, err := e.toSQL(ctx, e.dialect.
		From(e.tables.appointments).
		Select(colID, colDate, colPatientUsername, colCaregiverUsername, colVaccineName).
		Where(goqu.Or(
			goqu.C(colPatientUsername).Eq(username),
			goqu.C(colCaregiverUsername).Eq(username),
		)).
		Order(goqu.C(colID).Asc()),
	)
	if err != nil {
		return nil, observer.finish(err)
	}

	rows, err := e.query(ctx, operationListFor, statement)
	if err != nil {
		return nil, observer.finish(err)
	}

	appointments := make([]scheduler.Appointment, 0)
	err = e.scanAll(ctx, rows, func(row adapters.DBRows) error {
		var appointment scheduler.Appointment
		var id int64
		var date time.Time

		scanErr := row.Scan(&id, &date, &appointment.Patient, &appointment.Caregiver, &appointment.Vaccine)
		if scanErr != nil {
			return scanErr
		}

		appointment.ID = scheduler.AppointmentID(id)
		appointment.Date = scheduler.DateFromTime(date)
		appointments = append(appointments, appointment)

		return nil
	})
	if err != nil {
		return nil, observer.finish(err)
	}

	return appointments, observer.finish(nil)
}

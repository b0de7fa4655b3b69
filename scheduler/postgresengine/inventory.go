package postgresengine

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/postgresengine/internal/adapters"
)

// AddDoses upserts the vaccine in one statement:
//
//	INSERT INTO vaccines (doses, name) VALUES (n, 'name')
//	ON CONFLICT (name) DO UPDATE SET doses = vaccines.doses + excluded.doses
func (e Engine) AddDoses(ctx context.Context, name string, count int) error {
	ctx, observer := e.startOperation(ctx, operationAddDoses, map[string]string{spanAttrVaccine: name})

	if name == "" {
		return observer.finish(fmt.Errorf("%w: vaccine name must not be empty", scheduler.ErrInvalidInput))
	}

	if count < 0 {
		return observer.finish(fmt.Errorf("%w: dose count must not be negative, got %d", scheduler.ErrInvalidInput, count))
	}

	statement, err := e.toSQL(ctx, e.dialect.
		Insert(e.tables.vaccines).
		Rows(goqu.Record{colName: name, colDoses: count}).
		OnConflict(goqu.DoUpdate(colName, goqu.Record{
			colDoses: goqu.L("? + ?", goqu.T(e.tables.vaccines).Col(colDoses), goqu.I("excluded."+colDoses)),
		})),
	)
	if err != nil {
		return observer.finish(err)
	}

	_, err = e.exec(ctx, operationAddDoses, statement)

	return observer.finish(err)
}

// TryDecrement takes one dose with a single conditional UPDATE. When no row was touched
// a follow-up existence check distinguishes an unknown vaccine from an empty one.
func (e Engine) TryDecrement(ctx context.Context, name string) error {
	ctx, observer := e.startOperation(ctx, operationTryDecrement, map[string]string{spanAttrVaccine: name})

	statement, err := e.toSQL(ctx, e.dialect.
		Update(e.tables.vaccines).
		Set(goqu.Record{colDoses: goqu.L("? - 1", goqu.C(colDoses))}).
		Where(goqu.C(colName).Eq(name), goqu.C(colDoses).Gt(0)),
	)
	if err != nil {
		return observer.finish(err)
	}

	rowsAffected, err := e.exec(ctx, operationTryDecrement, statement)
	if err != nil {
		return observer.finish(err)
	}

	if rowsAffected == 1 {
		return observer.finish(nil)
	}

	known, err := e.vaccineExists(ctx, name)
	if err != nil {
		return observer.finish(err)
	}

	if !known {
		return observer.finish(fmt.Errorf("%w: %s", scheduler.ErrUnknownVaccine, name))
	}

	return observer.finish(fmt.Errorf("%w: %s", scheduler.ErrOutOfStock, name))
}

// RestoreDose gives one dose back.
func (e Engine) RestoreDose(ctx context.Context, name string) error {
	ctx, observer := e.startOperation(ctx, operationRestoreDose, map[string]string{spanAttrVaccine: name})

	statement, err := e.toSQL(ctx, e.dialect.
		Update(e.tables.vaccines).
		Set(goqu.Record{colDoses: goqu.L("? + 1", goqu.C(colDoses))}).
		Where(goqu.C(colName).Eq(name)),
	)
	if err != nil {
		return observer.finish(err)
	}

	rowsAffected, err := e.exec(ctx, operationRestoreDose, statement)
	if err != nil {
		return observer.finish(err)
	}

	if rowsAffected == 0 {
		return observer.finish(fmt.Errorf("%w: %s", scheduler.ErrUnknownVaccine, name))
	}

	return observer.finish(nil)
}

// Vaccines returns all vaccines ordered by name.
func (e Engine) Vaccines(ctx context.Context) ([]scheduler.Vaccine, error) {
	ctx, observer := e.startOperation(ctx, operationVaccines, nil)

	statement, err := e.toSQL(ctx, e.dialect.
		From(e.tables.vaccines).
		Select(colName, colDoses).
		Order(goqu.C(colName).Asc()),
	)
	if err != nil {
		return nil, observer.finish(err)
	}

	rows, err := e.query(ctx, operationVaccines, statement)
	if err != nil {
		return nil, observer.finish(err)
	}

	vaccines := make([]scheduler.Vaccine, 0)
	err = e.scanAll(ctx, rows, func(row adapters.DBRows) error {
		var vaccine scheduler.Vaccine
		var doses int64

		if scanErr := row.Scan(&vaccine.Name, &doses); scanErr != nil {
			return scanErr
		}

		vaccine.Doses = uint(doses)
		vaccines = append(vaccines, vaccine)

		return nil
	})
	if err != nil {
		return nil, observer.finish(err)
	}

	return vaccines, observer.finish(nil)
}

func (e Engine) vaccineExists(ctx context.Context, name string) (bool, error) {
	return e.exists(ctx, operationTryDecrement, e.dialect.
		From(e.tables.vaccines).
		Select(colName).
		Where(goqu.C(colName).Eq(name)),
	)
}

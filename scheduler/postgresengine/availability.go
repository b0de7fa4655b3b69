package postgresengine

import (
	"context"
	"fmt"
	"iter"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

func slotAttrs(caregiver string, date scheduler.Date) map[string]string {
	return map[string]string{spanAttrCaregiver: caregiver, spanAttrDate: date.String()}
}

// Publish inserts the slot unless it exists. An existing row keeps its claimed flag.
func (e Engine) Publish(ctx context.Context, caregiver string, date scheduler.Date) error {
	ctx, observer := e.startOperation(ctx, operationPublish, slotAttrs(caregiver, date))

	if caregiver == "" || date.IsZero() {
		return observer.finish(fmt.Errorf("%w: caregiver and date are required", scheduler.ErrInvalidInput))
	}

	statement, err := e.toSQL(ctx, e.dialect.
		Insert(e.tables.availability).
		Rows(goqu.Record{colUsername: caregiver, colDate: isoDate(date), colClaimed: false}).
		OnConflict(goqu.DoNothing()),
	)
	if err != nil {
		return observer.finish(err)
	}

	_, err = e.exec(ctx, operationPublish, statement)

	return observer.finish(err)
}

// OpenCaregivers runs a fresh SELECT every time the sequence is ranged over
// and streams the usernames while the rows are read.
func (e Engine) OpenCaregivers(ctx context.Context, date scheduler.Date) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, observer := e.startOperation(ctx, operationOpenCaregivers, map[string]string{spanAttrDate: date.String()})

		statement, err := e.toSQL(ctx, e.dialect.
			From(e.tables.availability).
			Select(colUsername).
			Where(goqu.C(colDate).Eq(isoDate(date)), goqu.C(colClaimed).IsFalse()).
			Order(goqu.C(colUsername).Asc()),
		)
		if err != nil {
			yield("", observer.finish(err))
			return
		}

		rows, err := e.query(ctx, operationOpenCaregivers, statement)
		if err != nil {
			yield("", observer.finish(err))
			return
		}
		defer e.closeRows(ctx, rows)

		for rows.Next() {
			var caregiver string
			if scanErr := rows.Scan(&caregiver); scanErr != nil {
				e.logError(ctx, logMsgScanRowFailed, scanErr)
				yield("", observer.finish(storageError(scanErr)))

				return
			}

			if !yield(caregiver, nil) {
				observer.finish(nil)
				return
			}
		}

		if rowsErr := rows.Err(); rowsErr != nil {
			yield("", observer.finish(storageError(rowsErr)))
			return
		}

		observer.finish(nil)
	}
}

// Claim flips the slot from open to claimed with a single guarded UPDATE.
// Zero affected rows means somebody else claimed it first or it was never published.
func (e Engine) Claim(ctx context.Context, caregiver string, date scheduler.Date) error {
	ctx, observer := e.startOperation(ctx, operationClaim, slotAttrs(caregiver, date))

	return observer.finish(e.flipClaimed(ctx, operationClaim, caregiver, date, true))
}

// Release flips a claimed slot back to open.
func (e Engine) Release(ctx context.Context, caregiver string, date scheduler.Date) error {
	ctx, observer := e.startOperation(ctx, operationRelease, slotAttrs(caregiver, date))

	return observer.finish(e.flipClaimed(ctx, operationRelease, caregiver, date, false))
}

func (e Engine) flipClaimed(ctx context.Context, action string, caregiver string, date scheduler.Date, claimed bool) error {
	statement, err := e.toSQL(ctx, e.dialect.
		Update(e.tables.availability).
		Set(goqu.Record{colClaimed: claimed}).
		Where(
			goqu.C(colUsername).Eq(caregiver),
			goqu.C(colDate).Eq(isoDate(date)),
			goqu.C(colClaimed).Eq(!claimed),
		),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := e.exec(ctx, action, statement)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s on %s", scheduler.ErrSlotUnavailable, caregiver, date)
	}

	return nil
}

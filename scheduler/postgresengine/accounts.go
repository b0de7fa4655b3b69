package postgresengine

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// CreateAccount inserts the account into the table of its role.
// ON CONFLICT DO NOTHING makes concurrent registrations of one username race-free.
func (e Engine) CreateAccount(ctx context.Context, account scheduler.Account) error {
	ctx, observer := e.startOperation(ctx, operationCreateAccount, nil)

	table, err := e.tables.accounts(account.Role)
	if err != nil {
		return observer.finish(err)
	}

	if account.Username == "" {
		return observer.finish(fmt.Errorf("%w: account needs a username", scheduler.ErrInvalidInput))
	}

	statement, err := e.toSQL(ctx, e.dialect.
		Insert(table).
		Rows(goqu.Record{
			colUsername: account.Username,
			colSalt:     goqu.L("decode(?, 'hex')", hex.EncodeToString(account.Salt)),
			colHash:     goqu.L("decode(?, 'hex')", hex.EncodeToString(account.Hash)),
		}).
		OnConflict(goqu.DoNothing()),
	)
	if err != nil {
		return observer.finish(err)
	}

	rowsAffected, err := e.exec(ctx, operationCreateAccount, statement)
	if err != nil {
		return observer.finish(err)
	}

	if rowsAffected == 0 {
		return observer.finish(fmt.Errorf("%w: %s", scheduler.ErrDuplicateUsername, account.Username))
	}

	return observer.finish(nil)
}

// Account loads the account of username for the given role.
func (e Engine) Account(ctx context.Context, role scheduler.Role, username string) (scheduler.Account, error) {
	ctx, observer := e.startOperation(ctx, operationAccount, nil)

	table, err := e.tables.accounts(role)
	if err != nil {
		return scheduler.Account{}, observer.finish(err)
	}

	account := scheduler.Account{Username: username, Role: role}
	found, err := e.queryRow(ctx, operationAccount, e.dialect.
		From(table).
		Select(colSalt, colHash).
		Where(goqu.C(colUsername).Eq(username)),
		&account.Salt, &account.Hash,
	)
	if err != nil {
		return scheduler.Account{}, observer.finish(err)
	}

	if !found {
		return scheduler.Account{}, observer.finish(fmt.Errorf("%w: %s %s", scheduler.ErrNotFound, role, username))
	}

	return account, observer.finish(nil)
}

package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/credentials"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Result carries the authenticated identity.
type Result struct {
	shell.HandlerResult

	Identity scheduler.Identity
}

// CommandHandler verifies credentials against the AccountStore.
type CommandHandler struct {
	accounts scheduler.AccountStore
	hasher   credentials.Hasher
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithHasher replaces the default argon2id parameters. It must match the parameters used at registration.
func WithHasher(hasher credentials.Hasher) Option {
	return func(h *CommandHandler) {
		h.hasher = hasher
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(accounts scheduler.AccountStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		accounts: accounts,
		hasher:   credentials.NewHasher(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle returns the identity for matching credentials.
// An unknown username and a wrong password both fail with ErrInvalidCredentials.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	identity, err := h.authenticate(ctx, command)

	return Result{HandlerResult: shell.SingleAttempt(err), Identity: identity}, err
}

func (h CommandHandler) authenticate(ctx context.Context, command Command) (scheduler.Identity, error) {
	if !command.Requester.IsZero() {
		return scheduler.Identity{}, scheduler.ErrAlreadyAuthenticated
	}

	if command.Role != scheduler.RolePatient && command.Role != scheduler.RoleCaregiver {
		return scheduler.Identity{}, fmt.Errorf("%w: unknown role %s", scheduler.ErrInvalidInput, command.Role)
	}

	if command.Username == "" {
		return scheduler.Identity{}, fmt.Errorf("%w: username is required", scheduler.ErrInvalidInput)
	}

	account, err := h.accounts.Account(ctx, command.Role, command.Username)
	if errors.Is(err, scheduler.ErrNotFound) {
		return scheduler.Identity{}, scheduler.ErrInvalidCredentials
	}

	if err != nil {
		return scheduler.Identity{}, err
	}

	if !h.hasher.Verify(command.Password, account.Salt, account.Hash) {
		return scheduler.Identity{}, scheduler.ErrInvalidCredentials
	}

	return scheduler.Identity{Username: account.Username, Role: account.Role}, nil
}

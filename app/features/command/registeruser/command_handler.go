package registeruser

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/credentials"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// CommandHandler stores a new account with a salted password hash.
type CommandHandler struct {
	accounts scheduler.AccountStore
	hasher   credentials.Hasher
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithHasher replaces the default argon2id parameters.
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

// Handle creates the account. A taken username fails with ErrDuplicateUsername.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	err := h.handle(ctx, command)

	return shell.SingleAttempt(err), err
}

func (h CommandHandler) handle(ctx context.Context, command Command) error {
	if command.Role != scheduler.RolePatient && command.Role != scheduler.RoleCaregiver {
		return fmt.Errorf("%w: unknown role %s", scheduler.ErrInvalidInput, command.Role)
	}

	if command.Username == "" || command.Password == "" {
		return fmt.Errorf("%w: username and password are required", scheduler.ErrInvalidInput)
	}

	salt, hash, err := h.hasher.Derive(command.Password)
	if err != nil {
		return err
	}

	return h.accounts.CreateAccount(ctx, scheduler.Account{
		Username: command.Username,
		Role:     command.Role,
		Salt:     salt,
		Hash:     hash,
	})
}

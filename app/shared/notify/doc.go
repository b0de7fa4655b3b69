// Package notify defines the domain notifications of the scheduler, their wire envelope,
// and the Publisher contract with a no-op and a fan-out implementation.
//
// Publishing happens after a command committed and is best-effort:
// a failed publication is logged but never undoes the command.
package notify

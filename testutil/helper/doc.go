// Package helper provides spies for the scheduler observability interfaces
// and small fixtures shared by tests across packages.
package helper

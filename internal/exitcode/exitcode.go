// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad flags, bad date, unreadable config).
	UserError = 1

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// Package errkind classifies domain errors into the handful of kinds a user
// (or an HTTP client) needs to tell apart, with a short message for each.
package errkind

import (
	"errors"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/master"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

type Kind int

const (
	Internal Kind = iota
	Conflict
	NotFound
	Auth
	Network
	Remote
	Validation
)

func (k Kind) String() string {
	switch k {
	case Conflict:
		return "CONFLICT"
	case NotFound:
		return "NOT_FOUND"
	case Auth:
		return "UNAUTHORIZED"
	case Network:
		return "NETWORK_ERROR"
	case Remote:
		return "REMOTE_ERROR"
	case Validation:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// Of returns the kind of err.
func Of(err error) Kind {
	k, _ := Classify(err)
	return k
}

// Message returns a short user-facing description of err.
func Message(err error) string {
	_, msg := Classify(err)
	return msg
}

// Classify returns the kind of err together with its user message.
func Classify(err error) (Kind, string) {
	var (
		validationErrs validator.ValidationErrors
		networkErr     *snapshot.NetworkError
		remoteErr      *snapshot.RemoteError
	)

	switch {
	case err == nil:
		return Internal, ""
	case errors.As(err, &validationErrs):
		return Validation, "Validation failed: " + validationErrs.Error()

	// Shift ledger errors
	case errors.Is(err, shift.ErrOpenShiftExists):
		return Conflict, "Employee is already clocked in, clock out first"
	case errors.Is(err, shift.ErrNoOpenShift):
		return NotFound, "No open shift found for this employee"
	case errors.Is(err, shift.ErrShiftNotFound):
		return NotFound, "Shift record not found"

	// Master data errors
	case errors.Is(err, branch.ErrBranchNotFound):
		return NotFound, "Branch not found"
	case errors.Is(err, branch.ErrBranchNameExists):
		return Conflict, "Branch name already exists"
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return NotFound, "Employee not found"
	case errors.Is(err, master.ErrInvalidPIN):
		return Auth, "Incorrect admin PIN"
	case errors.Is(err, master.ErrPINNotSet):
		return Auth, "Admin PIN has not been set"

	// Sync errors
	case errors.Is(err, snapshot.ErrMissingCredential):
		return Auth, "Sync token is not configured"
	case errors.Is(err, snapshot.ErrInvalidCredential):
		return Auth, "Sync token was rejected"
	case errors.Is(err, snapshot.ErrTargetNotFound):
		return NotFound, "Remote snapshot not found"
	case errors.Is(err, snapshot.ErrUnknownTarget):
		return NotFound, "Unknown sync target"
	case errors.Is(err, snapshot.ErrMalformedSnapshot):
		return Remote, "Remote snapshot could not be read"
	case errors.As(err, &networkErr):
		return Network, "Could not reach the sync server"
	case errors.As(err, &remoteErr):
		return Remote, "Sync server returned an error"

	default:
		return Internal, "An unexpected error occurred"
	}
}

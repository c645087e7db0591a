package shift

import "errors"

var (
	// ErrOpenShiftExists is returned on clock-in while a shift is still open.
	ErrOpenShiftExists = errors.New("employee already has an open shift, clock out first")
	// ErrNoOpenShift is returned on clock-out when there is nothing to close.
	ErrNoOpenShift = errors.New("no open shift found for employee")

	ErrShiftNotFound = errors.New("shift record not found")
)

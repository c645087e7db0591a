package master

import "errors"

// Admin PIN gate errors. The PIN gate is a convenience, not a security boundary.
var (
	ErrInvalidPIN = errors.New("invalid admin PIN")
	ErrPINNotSet  = errors.New("admin PIN has not been set")
)

// MinPINLength is the shortest accepted admin PIN.
const MinPINLength = 4

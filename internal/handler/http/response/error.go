package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/pkg/errkind"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	kind, message := errkind.Classify(err)
	switch kind {
	case errkind.Conflict:
		Conflict(w, message)
	case errkind.NotFound:
		NotFound(w, message)
	case errkind.Auth:
		Unauthorized(w, message)
	case errkind.Network, errkind.Remote:
		BadGateway(w, kind.String(), message)

	// Default
	default:
		InternalServerError(w, message)
	}
}

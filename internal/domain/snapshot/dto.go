package snapshot

import (
	"strings"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// ConfigureRequest updates the sync credential and remembered target IDs.
// A nil Token leaves the stored one untouched; an empty one removes it.
// An empty target ID forgets the target so the next push creates a new one.
type ConfigureRequest struct {
	Token   *string           `json:"token,omitempty"`
	Targets map[string]string `json:"targets,omitempty"`
}

func (r *ConfigureRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Token != nil && strings.ContainsAny(*r.Token, " \t\r\n") {
		errs.Add("token", "token must not contain whitespace")
	}
	for name, id := range r.Targets {
		if _, ok := LookupTarget(name); !ok {
			errs.Add("targets."+name, "unknown sync target")
			continue
		}
		if !validator.MaxLen(id, 200) {
			errs.Add("targets."+name, "target id is too long")
		}
	}

	return errs.Err()
}

// SyncSettings reports the sync configuration without revealing the token.
type SyncSettings struct {
	TokenConfigured bool              `json:"token_configured"`
	DeviceID        string            `json:"device_id"`
	Targets         map[string]string `json:"targets"`
}

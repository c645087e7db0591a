package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validator.ValidationErrors{{Field: name, Message: name + " must be a positive number"}}
	}
	return id, nil
}

func queryInt64(r *http.Request, name string, errs *validator.ValidationErrors) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs.Add(name, name+" must be a number")
		return nil
	}
	return &v
}

func queryFloat(r *http.Request, name string, errs *validator.ValidationErrors) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.Add(name, name+" must be a number")
		return 0
	}
	return v
}

// queryTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC).
func queryTime(r *http.Request, name string, errs *validator.ValidationErrors) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	errs.Add(name, name+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	return nil
}

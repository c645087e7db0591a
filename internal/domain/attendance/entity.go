package attendance

import "github.com/cmlabs-hris/timeclock/internal/domain/shift"

// Outcome is the result of a clock action. The shift is recorded whatever
// happens to the follow-up push: a SyncError never undoes Event.
type Outcome struct {
	Event     shift.ShiftEvent
	Synced    bool
	SyncError error
}

type OutcomeResponse struct {
	Shift     shift.ShiftResponse `json:"shift"`
	Synced    bool                `json:"synced"`
	SyncError string              `json:"sync_error,omitempty"`
}

func NewOutcomeResponse(o Outcome, syncMessage func(error) string) OutcomeResponse {
	resp := OutcomeResponse{
		Shift:  shift.NewShiftResponse(o.Event),
		Synced: o.Synced,
	}
	if o.SyncError != nil {
		resp.SyncError = syncMessage(o.SyncError)
	}
	return resp
}

// EventsTopic is the live topic clock events are published on.
const EventsTopic = "shifts"

const (
	EventClockIn  = "clock_in"
	EventClockOut = "clock_out"
)

// ClockEvent is broadcast to live subscribers after every clock action.
type ClockEvent struct {
	Name    string          `json:"name"`
	Outcome OutcomeResponse `json:"outcome"`
}

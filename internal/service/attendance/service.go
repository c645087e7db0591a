package attendance

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/pkg/errkind"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/pkg/sse"
)

// Locator is satisfied by *geolocation.Provider.
type Locator interface {
	Current(ctx context.Context) geo.Coord
}

// TargetPusher is satisfied by the sync service.
type TargetPusher interface {
	PushTarget(ctx context.Context, name string, description string) (snapshot.PushResult, error)
}

// Tracker is satisfied by the tracker service.
type Tracker interface {
	Start(employeeID int64)
	Stop(employeeID int64) bool
}

type AttendanceServiceImpl struct {
	ledger   shift.LedgerService
	locator  Locator
	sync     TargetPusher
	tracker  Tracker
	autoPush bool
	events   *sse.Hub
	logger   *slog.Logger
}

type Option func(*AttendanceServiceImpl)

// WithAutoPush pushes the shifts target after every clock action.
func WithAutoPush(sync TargetPusher) Option {
	return func(s *AttendanceServiceImpl) {
		s.sync = sync
		s.autoPush = sync != nil
	}
}

func WithTracker(t Tracker) Option {
	return func(s *AttendanceServiceImpl) { s.tracker = t }
}

// WithEvents publishes clock events on hub instead of a private one.
func WithEvents(hub *sse.Hub) Option {
	return func(s *AttendanceServiceImpl) {
		if hub != nil {
			s.events = hub
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *AttendanceServiceImpl) { s.logger = l }
}

func NewAttendanceService(ledger shift.LedgerService, locator Locator, opts ...Option) *AttendanceServiceImpl {
	s := &AttendanceServiceImpl{
		ledger:  ledger,
		locator: locator,
		events:  sse.NewHub(16),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req shift.ClockInRequest) (attendance.Outcome, error) {
	if req.Coords() == nil && s.locator != nil {
		req.WithCoords(s.locator.Current(ctx))
	}

	event, err := s.ledger.ClockIn(ctx, req)
	if err != nil {
		return attendance.Outcome{}, err
	}

	if s.tracker != nil {
		s.tracker.Start(event.EmployeeID)
	}
	outcome := s.afterClock(ctx, event)
	s.publish(attendance.EventClockIn, outcome)
	return outcome, nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req shift.ClockOutRequest) (attendance.Outcome, error) {
	if req.Coords() == nil && s.locator != nil {
		req.WithCoords(s.locator.Current(ctx))
	}

	event, err := s.ledger.ClockOut(ctx, req)
	if err != nil {
		return attendance.Outcome{}, err
	}

	if s.tracker != nil {
		s.tracker.Stop(event.EmployeeID)
	}
	outcome := s.afterClock(ctx, event)
	s.publish(attendance.EventClockOut, outcome)
	return outcome, nil
}

func (s *AttendanceServiceImpl) afterClock(ctx context.Context, event shift.ShiftEvent) attendance.Outcome {
	outcome := attendance.Outcome{Event: event}
	if !s.autoPush {
		return outcome
	}

	if _, err := s.sync.PushTarget(ctx, snapshot.ShiftsTarget.Name, ""); err != nil {
		s.logger.Warn("shift recorded but not synced", "shift_id", event.ID, "error", err)
		outcome.SyncError = err
		return outcome
	}
	outcome.Synced = true
	return outcome
}

func (s *AttendanceServiceImpl) publish(name string, outcome attendance.Outcome) {
	s.events.Publish(sse.Event{
		Topic: attendance.EventsTopic,
		Name:  name,
		Data: attendance.ClockEvent{
			Name:    name,
			Outcome: attendance.NewOutcomeResponse(outcome, errkind.Message),
		},
	})
}

// Subscribe implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Subscribe(ctx context.Context) (<-chan attendance.ClockEvent, func()) {
	ch, cleanup := s.events.Subscribe(attendance.EventsTopic)

	out := make(chan attendance.ClockEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				if ce, ok := event.Data.(attendance.ClockEvent); ok {
					select {
					case out <- ce:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// CurrentStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CurrentStatus(ctx context.Context, employeeID int64) (shift.Status, error) {
	return s.ledger.CurrentStatus(ctx, employeeID)
}

// ResumeTracking implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ResumeTracking(ctx context.Context) (int, error) {
	if s.tracker == nil {
		return 0, nil
	}

	open, err := s.ledger.List(ctx, shift.ShiftFilter{OpenOnly: true})
	if err != nil {
		return 0, err
	}
	for _, event := range open {
		s.tracker.Start(event.EmployeeID)
	}
	return len(open), nil
}

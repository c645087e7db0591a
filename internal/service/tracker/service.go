// Package tracker samples an employee's position while their shift is open.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

const (
	DefaultInterval        = time.Minute
	DefaultThresholdMeters = 100
)

// Locator is satisfied by *geolocation.Provider.
type Locator interface {
	Current(ctx context.Context) geo.Coord
}

// LocationPusher is satisfied by the sync service.
type LocationPusher interface {
	PushLocations(ctx context.Context, fixes []snapshot.LocationFix) (snapshot.PushResult, error)
}

type TrackerServiceImpl struct {
	scheduler *cron.Scheduler
	locator   Locator
	settings  setting.SettingRepository
	pusher    LocationPusher
	interval  time.Duration
	threshold float64
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*TrackerServiceImpl)

func WithInterval(d time.Duration) Option {
	return func(s *TrackerServiceImpl) { s.interval = d }
}

func WithThreshold(meters float64) Option {
	return func(s *TrackerServiceImpl) { s.threshold = meters }
}

// WithPusher enables pushing recorded fixes to the locations target.
func WithPusher(p LocationPusher) Option {
	return func(s *TrackerServiceImpl) { s.pusher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *TrackerServiceImpl) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *TrackerServiceImpl) { s.logger = l }
}

func NewTrackerService(scheduler *cron.Scheduler, locator Locator, settings setting.SettingRepository, opts ...Option) *TrackerServiceImpl {
	s := &TrackerServiceImpl{
		scheduler: scheduler,
		locator:   locator,
		settings:  settings,
		interval:  DefaultInterval,
		threshold: DefaultThresholdMeters,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.threshold < 0 {
		s.threshold = DefaultThresholdMeters
	}
	return s
}

func jobName(employeeID int64) string {
	return "tracker/" + strconv.FormatInt(employeeID, 10)
}

// Start begins periodic sampling for the employee, replacing any running job.
func (s *TrackerServiceImpl) Start(employeeID int64) {
	s.scheduler.AddJob(jobName(employeeID), s.interval, func(ctx context.Context) error {
		_, err := s.Sample(ctx, employeeID)
		return err
	})
	s.logger.Info("location tracking started", "employee_id", employeeID, "interval", s.interval)
}

// Stop cancels sampling for the employee and reports whether it was running.
func (s *TrackerServiceImpl) Stop(employeeID int64) bool {
	stopped := s.scheduler.RemoveJob(jobName(employeeID))
	if stopped {
		s.logger.Info("location tracking stopped", "employee_id", employeeID)
	}
	return stopped
}

// Tracking lists the employees currently tracked.
func (s *TrackerServiceImpl) Tracking() []int64 {
	var ids []int64
	for _, name := range s.scheduler.Jobs() {
		raw, ok := strings.CutPrefix(name, "tracker/")
		if !ok {
			continue
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sample takes one fix for the employee and records it when it moved more
// than the threshold from the last recorded fix. Degraded fixes are skipped.
func (s *TrackerServiceImpl) Sample(ctx context.Context, employeeID int64) (bool, error) {
	coord := s.locator.Current(ctx)
	if coord.IsZero() || !coord.Valid() {
		s.logger.Debug("skipping degraded fix", "employee_id", employeeID)
		return false, nil
	}

	last, err := s.Last(ctx, employeeID)
	if err != nil {
		return false, err
	}
	if last != nil && geo.DistanceMeters(&last.Coord, &coord) <= s.threshold {
		return false, nil
	}

	fix := snapshot.LocationFix{
		EmployeeID: employeeID,
		Coord:      coord,
		At:         s.now().UTC().Truncate(time.Millisecond),
	}
	data, err := json.Marshal(fix)
	if err != nil {
		return false, fmt.Errorf("failed to encode location: %w", err)
	}
	if err := s.settings.Put(ctx, lastKey(employeeID), string(data)); err != nil {
		return false, fmt.Errorf("failed to record location: %w", err)
	}

	s.logger.Debug("location recorded", "employee_id", employeeID, "lat", coord.Lat, "lng", coord.Lng)
	s.push(ctx)
	return true, nil
}

// push uploads the latest fix of every employee. Failures are logged only.
func (s *TrackerServiceImpl) push(ctx context.Context) {
	if s.pusher == nil {
		return
	}
	target, err := s.settings.Get(ctx, setting.KeySyncTargetPrefix+snapshot.LocationsTarget.Name)
	if err != nil || target == nil || *target == "" {
		return
	}

	fixes, err := s.LastAll(ctx)
	if err != nil {
		s.logger.Warn("failed to collect locations", "error", err)
		return
	}
	if _, err := s.pusher.PushLocations(ctx, fixes); err != nil {
		s.logger.Warn("failed to push locations", "error", err)
	}
}

func lastKey(employeeID int64) string {
	return setting.KeyTrackerLastPrefix + strconv.FormatInt(employeeID, 10)
}

// Last returns the last recorded fix of the employee, or nil.
func (s *TrackerServiceImpl) Last(ctx context.Context, employeeID int64) (*snapshot.LocationFix, error) {
	raw, err := s.settings.Get(ctx, lastKey(employeeID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var fix snapshot.LocationFix
	if err := json.Unmarshal([]byte(*raw), &fix); err != nil {
		s.logger.Warn("discarding unreadable location", "employee_id", employeeID, "error", err)
		return nil, nil
	}
	return &fix, nil
}

// LastAll returns the last recorded fix of every employee, ordered by employee.
func (s *TrackerServiceImpl) LastAll(ctx context.Context) ([]snapshot.LocationFix, error) {
	settings, err := s.settings.List(ctx)
	if err != nil {
		return nil, err
	}

	fixes := []snapshot.LocationFix{}
	for _, st := range settings {
		if !strings.HasPrefix(st.Key, setting.KeyTrackerLastPrefix) {
			continue
		}
		var fix snapshot.LocationFix
		if err := json.Unmarshal([]byte(st.Value), &fix); err != nil {
			continue
		}
		fixes = append(fixes, fix)
	}
	sort.Slice(fixes, func(i, j int) bool { return fixes[i].EmployeeID < fixes[j].EmployeeID })
	return fixes, nil
}

// Package app wires the store, remotes and services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/config"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geolocation"
	"github.com/cmlabs-hris/timeclock/internal/pkg/gist"
	"github.com/cmlabs-hris/timeclock/internal/pkg/log"
	"github.com/cmlabs-hris/timeclock/internal/pkg/storage"
	"github.com/cmlabs-hris/timeclock/internal/repository"
	"github.com/cmlabs-hris/timeclock/internal/repository/postgresql"
	"github.com/cmlabs-hris/timeclock/internal/repository/sqlite"
	"github.com/cmlabs-hris/timeclock/internal/service/attendance"
	"github.com/cmlabs-hris/timeclock/internal/service/ledger"
	"github.com/cmlabs-hris/timeclock/internal/service/master"
	"github.com/cmlabs-hris/timeclock/internal/service/reconcile"
	"github.com/cmlabs-hris/timeclock/internal/service/report"
	"github.com/cmlabs-hris/timeclock/internal/service/tracker"
)

const retentionJob = "retention"

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *repository.Store
	Scheduler *cron.Scheduler
	Location  *geolocation.Provider

	Ledger     *ledger.LedgerServiceImpl
	Master     *master.MasterServiceImpl
	Reports    *report.ReportServiceImpl
	Sync       *reconcile.SyncServiceImpl
	Tracker    *tracker.TrackerServiceImpl
	Attendance *attendance.AttendanceServiceImpl
}

type Option func(*options)

type options struct {
	tracking bool
	remote   snapshot.RemoteStore
	source   geolocation.Source
}

// WithTracking starts location tracking on clock-in. Only long-running
// processes should enable it.
func WithTracking() Option {
	return func(o *options) { o.tracking = true }
}

// WithRemote overrides the configured remote store.
func WithRemote(r snapshot.RemoteStore) Option {
	return func(o *options) { o.remote = r }
}

// WithLocationSource overrides the configured geolocation source.
func WithLocationSource(s geolocation.Source) Option {
	return func(o *options) { o.source = s }
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	remote := o.remote
	if remote == nil {
		remote, err = NewRemote(cfg, log.SubLogger(logger, "sync"))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	source := o.source
	if source == nil {
		source = NewLocationSource(cfg)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Scheduler: cron.NewScheduler(log.SubLogger(logger, "cron")),
		Location:  geolocation.NewProvider(source, cfg.Geo.Timeout, log.SubLogger(logger, "geo")),
	}

	a.Ledger = ledger.NewLedgerService(store, store.Employees, store.Shifts,
		ledger.WithLogger(log.SubLogger(logger, "ledger")))
	a.Master = master.NewMasterService(store, store.Branches, store.Employees, store.Settings,
		log.SubLogger(logger, "master"))
	a.Sync = reconcile.NewSyncService(store, remote,
		reconcile.WithCredential(cfg.Sync.Token),
		reconcile.WithLogger(log.SubLogger(logger, "sync")))

	a.Reports, err = report.NewReportService(store.Branches, store.Employees, store.Shifts,
		log.SubLogger(logger, "report"))
	if err != nil {
		store.Close()
		return nil, err
	}

	attendanceOpts := []attendance.Option{attendance.WithLogger(log.SubLogger(logger, "attendance"))}
	if cfg.Sync.AutoPush {
		attendanceOpts = append(attendanceOpts, attendance.WithAutoPush(a.Sync))
	}
	if o.tracking && cfg.Tracker.Enabled {
		a.Tracker = tracker.NewTrackerService(a.Scheduler, a.Location, store.Settings,
			tracker.WithInterval(cfg.Tracker.Interval),
			tracker.WithThreshold(cfg.Tracker.ThresholdMeters),
			tracker.WithPusher(a.Sync),
			tracker.WithLogger(log.SubLogger(logger, "tracker")))
		attendanceOpts = append(attendanceOpts, attendance.WithTracker(a.Tracker))
	}
	a.Attendance = attendance.NewAttendanceService(a.Ledger, a.Location, attendanceOpts...)

	return a, nil
}

// OpenStore opens the configured Local Store backend.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		store, err := postgresql.Open(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store %s: %w", cfg.Store.Path, err)
		}
		return store, nil
	}
}

// NewRemote builds the configured snapshot remote.
func NewRemote(cfg *config.Config, logger *slog.Logger) (snapshot.RemoteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Sync.Remote {
	case config.RemoteDir:
		files, err := storage.NewLocalStorage(cfg.Sync.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		return storage.NewSnapshotStore(files), nil
	default:
		return gist.NewClient(
			gist.WithBaseURL(cfg.Sync.BaseURL),
			gist.WithPublic(cfg.Sync.Public),
			gist.WithTimeout(cfg.Sync.Timeout),
			gist.WithRetry(cfg.Sync.RetryAttempts, 500*time.Millisecond),
			gist.WithLogger(logger),
		), nil
	}
}

// NewLocationSource builds the configured geolocation source.
func NewLocationSource(cfg *config.Config) geolocation.Source {
	switch cfg.Geo.Provider {
	case config.GeoStatic:
		return geolocation.Static(geo.Coord{Lat: cfg.Geo.Latitude, Lng: cfg.Geo.Longitude})
	case config.GeoHTTP:
		return geolocation.NewHTTPSource(cfg.Geo.URL, &http.Client{Timeout: cfg.Geo.Timeout})
	default:
		return geolocation.Unavailable()
	}
}

// StartBackground schedules retention cleanup, resumes tracking of open
// shifts and starts the scheduler.
func (a *App) StartBackground(ctx context.Context) error {
	a.Scheduler.AddJob(retentionJob, a.Config.RetentionInterval, func(ctx context.Context) error {
		deleted, err := a.Ledger.PurgeOlderThan(ctx, a.Config.RetentionDays)
		if err != nil {
			return err
		}
		if deleted > 0 {
			a.Logger.Info("retention cleanup removed old shifts", "deleted", deleted, "days", a.Config.RetentionDays)
		}
		return nil
	})

	resumed, err := a.Attendance.ResumeTracking(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume tracking: %w", err)
	}
	if resumed > 0 {
		a.Logger.Info("resumed location tracking", "open_shifts", resumed)
	}

	a.Scheduler.Start()
	return nil
}

// Close stops background jobs and releases the store.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Reports.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("failed to close store", "error", err)
	}
}

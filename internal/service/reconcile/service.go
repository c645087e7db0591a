package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/repository"
	"github.com/google/uuid"
)

type SyncServiceImpl struct {
	store      *repository.Store
	remote     snapshot.RemoteStore
	credential string
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*SyncServiceImpl)

// WithCredential sets the token used when none is stored in settings.
func WithCredential(token string) Option {
	return func(s *SyncServiceImpl) { s.credential = token }
}

func WithClock(now func() time.Time) Option {
	return func(s *SyncServiceImpl) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *SyncServiceImpl) { s.logger = l }
}

func NewSyncService(store *repository.Store, remote snapshot.RemoteStore, opts ...Option) *SyncServiceImpl {
	s := &SyncServiceImpl{
		store:  store,
		remote: remote,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push implements snapshot.SyncService.
func (s *SyncServiceImpl) Push(ctx context.Context, snap snapshot.Snapshot, targetID string, description string) (snapshot.PushResult, error) {
	credential, err := s.resolveCredential(ctx)
	if err != nil {
		return snapshot.PushResult{}, err
	}
	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return snapshot.PushResult{}, err
	}

	snap.Version = snapshot.Version
	snap.DeviceID = deviceID

	collections := snap.Collections()
	if description == "" {
		description = defaultDescription(collections, s.now())
	}

	content, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return snapshot.PushResult{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	result, err := s.write(ctx, credential, targetID, content, description)
	if err != nil {
		return snapshot.PushResult{}, err
	}
	result.Collections = collections

	s.logger.Info("snapshot pushed",
		"target_id", result.TargetID,
		"created", result.Created,
		"collections", joinCollections(collections),
	)
	return result, nil
}

func (s *SyncServiceImpl) write(ctx context.Context, credential, targetID string, content []byte, description string) (snapshot.PushResult, error) {
	if targetID == "" {
		id, err := s.remote.Create(ctx, credential, content, description)
		if err != nil {
			return snapshot.PushResult{}, fmt.Errorf("failed to create remote snapshot: %w", err)
		}
		return snapshot.PushResult{TargetID: id, Created: true, Description: description}, nil
	}

	if err := s.remote.Update(ctx, credential, targetID, content, description); err != nil {
		return snapshot.PushResult{}, fmt.Errorf("failed to update remote snapshot %s: %w", targetID, err)
	}
	return snapshot.PushResult{TargetID: targetID, Description: description}, nil
}

// Pull implements snapshot.SyncService.
func (s *SyncServiceImpl) Pull(ctx context.Context, targetID string) (snapshot.Snapshot, error) {
	if targetID == "" {
		return snapshot.Snapshot{}, snapshot.ErrTargetNotFound
	}
	credential, err := s.resolveCredential(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	content, err := s.remote.Read(ctx, credential, targetID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("failed to read remote snapshot %s: %w", targetID, err)
	}

	snap, err := Decode(content)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	s.logger.Info("snapshot pulled",
		"target_id", targetID,
		"collections", joinCollections(snap.Collections()),
	)
	return snap, nil
}

// Decode parses and checks a snapshot document.
func Decode(content []byte) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%w: %v", snapshot.ErrMalformedSnapshot, err)
	}
	if snap.Version > snapshot.Version {
		return snapshot.Snapshot{}, fmt.Errorf("%w: unsupported version %d", snapshot.ErrMalformedSnapshot, snap.Version)
	}
	if err := check(snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%w: %v", snapshot.ErrMalformedSnapshot, err)
	}
	return snap, nil
}

// check rejects documents that would break local invariants once applied.
func check(snap snapshot.Snapshot) error {
	seen := make(map[int64]bool)
	for _, b := range snap.Branches {
		if b.ID <= 0 || seen[b.ID] {
			return fmt.Errorf("branch id %d is missing or duplicated", b.ID)
		}
		seen[b.ID] = true
	}

	seen = make(map[int64]bool)
	for _, e := range snap.Employees {
		if e.ID <= 0 || seen[e.ID] {
			return fmt.Errorf("employee id %d is missing or duplicated", e.ID)
		}
		seen[e.ID] = true
	}

	seen = make(map[int64]bool)
	open := make(map[int64]bool)
	for _, ev := range snap.TimeEntries {
		if ev.ID <= 0 || seen[ev.ID] {
			return fmt.Errorf("time entry id %d is missing or duplicated", ev.ID)
		}
		seen[ev.ID] = true

		if ev.ClockIn.IsZero() {
			return fmt.Errorf("time entry %d has no clock-in", ev.ID)
		}
		if ev.ClockOut != nil && ev.ClockOut.Before(ev.ClockIn) {
			return fmt.Errorf("time entry %d clocks out before it clocks in", ev.ID)
		}
		if ev.ClockOut == nil {
			if open[ev.EmployeeID] {
				return fmt.Errorf("employee %d has more than one open shift", ev.EmployeeID)
			}
			open[ev.EmployeeID] = true
		}
	}
	return nil
}

// Apply implements snapshot.SyncService. Collections absent from snap are
// left untouched; present ones are replaced wholesale.
func (s *SyncServiceImpl) Apply(ctx context.Context, snap snapshot.Snapshot) error {
	if err := check(snap); err != nil {
		return fmt.Errorf("%w: %v", snapshot.ErrMalformedSnapshot, err)
	}

	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if snap.Has(snapshot.Branches) {
			if err := s.store.Branches.ReplaceAll(ctx, snap.Branches); err != nil {
				return fmt.Errorf("failed to replace branches: %w", err)
			}
		}
		if snap.Has(snapshot.Employees) {
			if err := s.store.Employees.ReplaceAll(ctx, snap.Employees); err != nil {
				return fmt.Errorf("failed to replace employees: %w", err)
			}
		}
		if snap.Has(snapshot.TimeEntries) {
			if err := s.store.Shifts.ReplaceAll(ctx, snap.TimeEntries); err != nil {
				return fmt.Errorf("failed to replace time entries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("snapshot applied",
		"branches", len(snap.Branches),
		"employees", len(snap.Employees),
		"time_entries", len(snap.TimeEntries),
	)
	return nil
}

// Collect implements snapshot.SyncService. No collections means all of them.
func (s *SyncServiceImpl) Collect(ctx context.Context, collections ...snapshot.Collection) (snapshot.Snapshot, error) {
	if len(collections) == 0 {
		collections = snapshot.AllCollections
	}

	var snap snapshot.Snapshot
	for _, c := range collections {
		switch c {
		case snapshot.Branches:
			branches, err := s.store.Branches.List(ctx)
			if err != nil {
				return snapshot.Snapshot{}, err
			}
			snap.Branches = nonNil(branches)
		case snapshot.Employees:
			employees, err := s.store.Employees.List(ctx)
			if err != nil {
				return snapshot.Snapshot{}, err
			}
			snap.Employees = nonNil(employees)
		case snapshot.TimeEntries:
			events, err := s.store.Shifts.List(ctx, shift.ShiftFilter{})
			if err != nil {
				return snapshot.Snapshot{}, err
			}
			snap.TimeEntries = nonNil(events)
		default:
			return snapshot.Snapshot{}, fmt.Errorf("unknown collection %q", c)
		}
	}
	return snap, nil
}

func defaultDescription(collections []snapshot.Collection, at time.Time) string {
	return fmt.Sprintf("timeclock sync %s %s", joinCollections(collections), at.UTC().Format(time.RFC3339))
}

func joinCollections(collections []snapshot.Collection) string {
	names := make([]string, len(collections))
	for i, c := range collections {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

// resolveCredential prefers the token stored in settings over the configured one.
func (s *SyncServiceImpl) resolveCredential(ctx context.Context) (string, error) {
	stored, err := s.store.Settings.Get(ctx, setting.KeySyncToken)
	if err != nil {
		return "", fmt.Errorf("failed to read sync token: %w", err)
	}
	if stored != nil && *stored != "" {
		return *stored, nil
	}
	return s.credential, nil
}

// DeviceID returns the anonymous device identifier, creating it on first use.
func (s *SyncServiceImpl) DeviceID(ctx context.Context) (string, error) {
	stored, err := s.store.Settings.Get(ctx, setting.KeyDeviceID)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if stored != nil && *stored != "" {
		return *stored, nil
	}

	id := uuid.NewString()
	if err := s.store.Settings.Put(ctx, setting.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to store device id: %w", err)
	}
	return id, nil
}

// nonNil keeps empty collections in the document as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

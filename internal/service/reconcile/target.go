package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
)

func targetKey(name string) string {
	return setting.KeySyncTargetPrefix + name
}

// TargetID returns the remembered remote ID of a named target, or "".
func (s *SyncServiceImpl) TargetID(ctx context.Context, name string) (string, error) {
	if _, ok := snapshot.LookupTarget(name); !ok {
		return "", fmt.Errorf("%w: %s", snapshot.ErrUnknownTarget, name)
	}
	stored, err := s.store.Settings.Get(ctx, targetKey(name))
	if err != nil {
		return "", fmt.Errorf("failed to read target id: %w", err)
	}
	if stored == nil {
		return "", nil
	}
	return *stored, nil
}

// PushTarget implements snapshot.SyncService. A remembered target that no
// longer exists remotely is recreated.
func (s *SyncServiceImpl) PushTarget(ctx context.Context, name string, description string) (snapshot.PushResult, error) {
	target, ok := snapshot.LookupTarget(name)
	if !ok {
		return snapshot.PushResult{}, fmt.Errorf("%w: %s", snapshot.ErrUnknownTarget, name)
	}
	if len(target.Collections) == 0 {
		return snapshot.PushResult{}, fmt.Errorf("%w: %s carries no collections", snapshot.ErrUnknownTarget, name)
	}

	targetID, err := s.TargetID(ctx, name)
	if err != nil {
		return snapshot.PushResult{}, err
	}
	snap, err := s.Collect(ctx, target.Collections...)
	if err != nil {
		return snapshot.PushResult{}, fmt.Errorf("failed to collect %s: %w", name, err)
	}

	result, err := s.Push(ctx, snap, targetID, description)
	if errors.Is(err, snapshot.ErrTargetNotFound) && targetID != "" {
		s.logger.Warn("remembered sync target is gone, creating a new one", "target", name, "target_id", targetID)
		result, err = s.Push(ctx, snap, "", description)
	}
	if err != nil {
		return snapshot.PushResult{}, err
	}

	if err := s.remember(ctx, name, targetID, result); err != nil {
		return result, err
	}
	return result, nil
}

func (s *SyncServiceImpl) remember(ctx context.Context, name, previousID string, result snapshot.PushResult) error {
	if result.TargetID == previousID {
		return nil
	}
	if err := s.store.Settings.Put(ctx, targetKey(name), result.TargetID); err != nil {
		return fmt.Errorf("failed to remember target %s: %w", name, err)
	}
	return nil
}

// PullTarget implements snapshot.SyncService. Only the target's own
// collections are applied, whatever else the document carries.
func (s *SyncServiceImpl) PullTarget(ctx context.Context, name string) (snapshot.Snapshot, error) {
	target, ok := snapshot.LookupTarget(name)
	if !ok || len(target.Collections) == 0 {
		return snapshot.Snapshot{}, fmt.Errorf("%w: %s", snapshot.ErrUnknownTarget, name)
	}

	targetID, err := s.TargetID(ctx, name)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if targetID == "" {
		return snapshot.Snapshot{}, fmt.Errorf("%w: no remote id configured for %s", snapshot.ErrTargetNotFound, name)
	}

	pulled, err := s.Pull(ctx, targetID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	snap := restrict(pulled, target.Collections)
	if err := s.Apply(ctx, snap); err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

func restrict(snap snapshot.Snapshot, collections []snapshot.Collection) snapshot.Snapshot {
	out := snapshot.Snapshot{
		Version:  snap.Version,
		DeviceID: snap.DeviceID,
	}
	for _, c := range collections {
		switch c {
		case snapshot.Branches:
			out.Branches = snap.Branches
		case snapshot.Employees:
			out.Employees = snap.Employees
		case snapshot.TimeEntries:
			out.TimeEntries = snap.TimeEntries
		}
	}
	return out
}

// PushLocations implements snapshot.SyncService.
func (s *SyncServiceImpl) PushLocations(ctx context.Context, fixes []snapshot.LocationFix) (snapshot.PushResult, error) {
	name := snapshot.LocationsTarget.Name

	credential, err := s.resolveCredential(ctx)
	if err != nil {
		return snapshot.PushResult{}, err
	}
	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return snapshot.PushResult{}, err
	}
	targetID, err := s.TargetID(ctx, name)
	if err != nil {
		return snapshot.PushResult{}, err
	}

	if fixes == nil {
		fixes = []snapshot.LocationFix{}
	}
	doc := snapshot.LocationReport{
		Version:  snapshot.Version,
		DeviceID: deviceID,
		Fixes:    fixes,
	}
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return snapshot.PushResult{}, fmt.Errorf("failed to encode locations: %w", err)
	}

	description := fmt.Sprintf("timeclock locations %s", s.now().UTC().Format(time.RFC3339))
	result, err := s.write(ctx, credential, targetID, content, description)
	if errors.Is(err, snapshot.ErrTargetNotFound) && targetID != "" {
		result, err = s.write(ctx, credential, "", content, description)
	}
	if err != nil {
		return snapshot.PushResult{}, err
	}

	if err := s.remember(ctx, name, targetID, result); err != nil {
		return result, err
	}
	s.logger.Debug("locations pushed", "target_id", result.TargetID, "fixes", len(fixes))
	return result, nil
}

// Configure implements snapshot.SyncService.
func (s *SyncServiceImpl) Configure(ctx context.Context, req snapshot.ConfigureRequest) (snapshot.SyncSettings, error) {
	if err := req.Validate(); err != nil {
		return snapshot.SyncSettings{}, err
	}

	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if req.Token != nil {
			if err := s.putOrDelete(ctx, setting.KeySyncToken, *req.Token); err != nil {
				return err
			}
		}
		for name, id := range req.Targets {
			if err := s.putOrDelete(ctx, targetKey(name), id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return snapshot.SyncSettings{}, fmt.Errorf("failed to save sync settings: %w", err)
	}

	s.logger.Info("sync settings updated", "token_changed", req.Token != nil, "targets", len(req.Targets))
	return s.Settings(ctx)
}

func (s *SyncServiceImpl) putOrDelete(ctx context.Context, key, value string) error {
	if value == "" {
		return s.store.Settings.Delete(ctx, key)
	}
	return s.store.Settings.Put(ctx, key, value)
}

// Settings implements snapshot.SyncService.
func (s *SyncServiceImpl) Settings(ctx context.Context) (snapshot.SyncSettings, error) {
	credential, err := s.resolveCredential(ctx)
	if err != nil {
		return snapshot.SyncSettings{}, err
	}
	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return snapshot.SyncSettings{}, err
	}

	out := snapshot.SyncSettings{
		TokenConfigured: credential != "",
		DeviceID:        deviceID,
		Targets:         map[string]string{},
	}
	for _, t := range []snapshot.Target{snapshot.ConfigTarget, snapshot.ShiftsTarget, snapshot.LocationsTarget} {
		id, err := s.TargetID(ctx, t.Name)
		if err != nil {
			return snapshot.SyncSettings{}, err
		}
		if id != "" {
			out.Targets[t.Name] = id
		}
	}
	return out, nil
}

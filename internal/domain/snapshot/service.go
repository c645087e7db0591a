package snapshot

import "context"

// SyncService pushes local state to a remote store and pulls it back.
type SyncService interface {
	// Push writes snap to targetID, creating a new document when targetID is empty.
	Push(ctx context.Context, snap Snapshot, targetID string, description string) (PushResult, error)

	// Pull reads and decodes the document at targetID.
	Pull(ctx context.Context, targetID string) (Snapshot, error)

	// Apply clears and repopulates the local collections present in snap.
	Apply(ctx context.Context, snap Snapshot) error

	// Collect reads the given collections from the local store.
	Collect(ctx context.Context, collections ...Collection) (Snapshot, error)

	// PushTarget collects and pushes a named target, remembering its ID.
	PushTarget(ctx context.Context, name string, description string) (PushResult, error)

	// PullTarget pulls a named target and applies it locally.
	PullTarget(ctx context.Context, name string) (Snapshot, error)

	// PushLocations replaces the locations document with fixes.
	PushLocations(ctx context.Context, fixes []LocationFix) (PushResult, error)

	// DeviceID returns the anonymous identifier of this device.
	DeviceID(ctx context.Context) (string, error)

	Configure(ctx context.Context, req ConfigureRequest) (SyncSettings, error)
	Settings(ctx context.Context) (SyncSettings, error)
}

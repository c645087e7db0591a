package setting

// Setting is an opaque key/value configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Well-known setting keys.
const (
	KeyAdminPINHash = "admin.pin_hash"
	KeySyncToken    = "sync.token"
	KeyDeviceID     = "device.id"

	// KeySyncTargetPrefix is followed by the target name, e.g. "sync.target.shifts".
	KeySyncTargetPrefix = "sync.target."
	// KeyTrackerLastPrefix is followed by the employee ID.
	KeyTrackerLastPrefix = "tracker.last."
)

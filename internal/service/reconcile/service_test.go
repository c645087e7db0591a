package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/pkg/errkind"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/repository"
	"github.com/cmlabs-hris/timeclock/internal/repository/sqlite"
	"github.com/cmlabs-hris/timeclock/internal/service/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

// memRemote is an in-memory snapshot.RemoteStore that behaves like the Gist
// client regarding credentials.
type memRemote struct {
	mu           sync.Mutex
	docs         map[string][]byte
	descriptions map[string]string
	credentials  []string
	err          error
	seq          int
}

func newMemRemote() *memRemote {
	return &memRemote{docs: map[string][]byte{}, descriptions: map[string]string{}}
}

func (m *memRemote) check(credential string) error {
	m.credentials = append(m.credentials, credential)
	if m.err != nil {
		return m.err
	}
	if credential == "" {
		return snapshot.ErrMissingCredential
	}
	return nil
}

func (m *memRemote) Create(_ context.Context, credential string, content []byte, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(credential); err != nil {
		return "", err
	}
	m.seq++
	id := fmt.Sprintf("gist-%d", m.seq)
	m.docs[id] = content
	m.descriptions[id] = description
	return id, nil
}

func (m *memRemote) Update(_ context.Context, credential string, targetID string, content []byte, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(credential); err != nil {
		return err
	}
	if _, ok := m.docs[targetID]; !ok {
		return snapshot.ErrTargetNotFound
	}
	m.docs[targetID] = content
	m.descriptions[targetID] = description
	return nil
}

func (m *memRemote) Read(_ context.Context, credential string, targetID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(credential); err != nil {
		return nil, err
	}
	doc, ok := m.docs[targetID]
	if !ok {
		return nil, snapshot.ErrTargetNotFound
	}
	return doc, nil
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newService(t *testing.T, remote snapshot.RemoteStore, opts ...reconcile.Option) (*repository.Store, *reconcile.SyncServiceImpl) {
	t.Helper()
	store := openStore(t)
	opts = append([]reconcile.Option{reconcile.WithCredential("ghp_test"), reconcile.WithClock(func() time.Time { return fixedNow })}, opts...)
	return store, reconcile.NewSyncService(store, remote, opts...)
}

func seed(t *testing.T, store *repository.Store) {
	t.Helper()
	ctx := context.Background()

	b, err := store.Branches.Create(ctx, branch.Branch{Name: "Centro", Latitude: ptr(19.43), Longitude: ptr(-99.13)})
	require.NoError(t, err)
	e, err := store.Employees.Create(ctx, employee.Employee{Name: "Ana", BranchID: &b.ID})
	require.NoError(t, err)

	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = store.Shifts.Create(ctx, shift.ShiftEvent{
		EmployeeID: e.ID, BranchID: &b.ID, ClockIn: in, ClockOut: ptr(in.Add(8 * time.Hour)),
		InCoords: &geo.Coord{Lat: 19.43, Lng: -99.13},
	})
	require.NoError(t, err)
}

func TestPushTarget_CreatesThenUpdates(t *testing.T) {
	remote := newMemRemote()
	store, svc := newService(t, remote)
	seed(t, store)
	ctx := context.Background()

	first, err := svc.PushTarget(ctx, "config", "")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, []snapshot.Collection{snapshot.Branches, snapshot.Employees}, first.Collections)
	assert.Equal(t, "timeclock sync branches,employees 2024-03-01T18:00:00Z", first.Description)

	id, err := svc.TargetID(ctx, "config")
	require.NoError(t, err)
	assert.Equal(t, first.TargetID, id, "created target id is remembered")

	second, err := svc.PushTarget(ctx, "config", "manual push")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.TargetID, second.TargetID)
	assert.Equal(t, "manual push", remote.descriptions[first.TargetID])

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(remote.docs[first.TargetID], &doc))
	assert.JSONEq(t, "null", string(doc["timeEntries"]), "collections outside the target are absent")
	assert.JSONEq(t, "1", string(doc["version"]))
}

// tickingClock returns a clock that moves one minute forward on every call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := fixedNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

func TestPush_IsIdempotent(t *testing.T) {
	remote := newMemRemote()
	store, svc := newService(t, remote, reconcile.WithClock(tickingClock()))
	seed(t, store)
	ctx := context.Background()

	snap, err := svc.Collect(ctx)
	require.NoError(t, err)

	a, err := svc.Push(ctx, snap, "", "")
	require.NoError(t, err)
	first := string(remote.docs[a.TargetID])

	b, err := svc.Push(ctx, snap, a.TargetID, "")
	require.NoError(t, err)
	assert.Equal(t, a.TargetID, b.TargetID)
	assert.NotEqual(t, a.Description, b.Description, "push time lives in the description")
	assert.Equal(t, first, string(remote.docs[b.TargetID]))
}

func TestPullTarget_RoundTrip(t *testing.T) {
	remote := newMemRemote()
	source, pusher := newService(t, remote)
	seed(t, source)
	ctx := context.Background()

	pushed, err := pusher.PushTarget(ctx, "shifts", "")
	require.NoError(t, err)
	_, err = pusher.PushTarget(ctx, "config", "")
	require.NoError(t, err)
	configID, err := pusher.TargetID(ctx, "config")
	require.NoError(t, err)

	dest, puller := newService(t, remote)
	_, err = puller.Configure(ctx, snapshot.ConfigureRequest{Targets: map[string]string{
		"shifts": pushed.TargetID,
		"config": configID,
	}})
	require.NoError(t, err)

	_, err = puller.PullTarget(ctx, "config")
	require.NoError(t, err)
	_, err = puller.PullTarget(ctx, "shifts")
	require.NoError(t, err)

	wantB, err := source.Branches.List(ctx)
	require.NoError(t, err)
	gotB, err := dest.Branches.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantB, gotB)

	wantE, err := source.Employees.List(ctx)
	require.NoError(t, err)
	gotE, err := dest.Employees.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantE, gotE)

	wantS, err := source.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	gotS, err := dest.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Equal(t, wantS, gotS)
}

func TestApply_ReplacesOnlyPresentCollections(t *testing.T) {
	store, svc := newService(t, newMemRemote())
	seed(t, store)
	ctx := context.Background()

	err := svc.Apply(ctx, snapshot.Snapshot{
		Branches: []branch.Branch{{ID: 7, Name: "Norte"}},
	})
	require.NoError(t, err)

	branches, err := store.Branches.List(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, int64(7), branches[0].ID)

	employees, err := store.Employees.List(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1, "employees were not part of the snapshot")

	events, err := store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, svc.Apply(ctx, snapshot.Snapshot{TimeEntries: []shift.ShiftEvent{}}))
	events, err = store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, events, "an empty collection clears it")
}

func TestApply_RejectsBrokenSnapshot(t *testing.T) {
	store, svc := newService(t, newMemRemote())
	seed(t, store)
	ctx := context.Background()

	in := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	err := svc.Apply(ctx, snapshot.Snapshot{
		Branches: []branch.Branch{},
		TimeEntries: []shift.ShiftEvent{
			{ID: 1, EmployeeID: 1, ClockIn: in},
			{ID: 2, EmployeeID: 1, ClockIn: in.Add(time.Hour)},
		},
	})
	assert.ErrorIs(t, err, snapshot.ErrMalformedSnapshot)

	branches, err := store.Branches.List(ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 1, "nothing was applied")
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"version":1,"branches":[{"id":1,"name":"A"}],"employees":null}`, false},
		{"legacy without version", `{"employees":[{"id":3,"name":"B"}]}`, false},
		{"not json", `<html>`, true},
		{"future version", `{"version":99}`, true},
		{"duplicate ids", `{"branches":[{"id":1,"name":"A"},{"id":1,"name":"B"}]}`, true},
		{"missing clock-in", `{"timeEntries":[{"id":1,"employeeId":1}]}`, true},
		{"clock-out before clock-in", `{"timeEntries":[{"id":1,"employeeId":1,"clockIn":"2024-03-01T17:00:00Z","clockOut":"2024-03-01T09:00:00Z"}]}`, true},
		{"zero-length shift", `{"timeEntries":[{"id":1,"employeeId":1,"clockIn":"2024-03-01T09:00:00Z","clockOut":"2024-03-01T09:00:00Z"}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconcile.Decode([]byte(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, snapshot.ErrMalformedSnapshot)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPull_Malformed(t *testing.T) {
	remote := newMemRemote()
	remote.docs["broken"] = []byte(`not json`)
	_, svc := newService(t, remote)

	_, err := svc.Pull(context.Background(), "broken")
	assert.ErrorIs(t, err, snapshot.ErrMalformedSnapshot)
	assert.Equal(t, errkind.Remote, errkind.Of(err))
}

func TestPush_MissingCredential(t *testing.T) {
	remote := newMemRemote()
	store := openStore(t)
	svc := reconcile.NewSyncService(store, remote)
	ctx := context.Background()

	_, err := svc.PushTarget(ctx, "config", "")
	assert.ErrorIs(t, err, snapshot.ErrMissingCredential)
	assert.Equal(t, errkind.Auth, errkind.Of(err))

	_, err = svc.Configure(ctx, snapshot.ConfigureRequest{Token: ptr("ghp_stored")})
	require.NoError(t, err)

	_, err = svc.PushTarget(ctx, "config", "")
	require.NoError(t, err)
	assert.Equal(t, "ghp_stored", remote.credentials[len(remote.credentials)-1])
}

func TestPush_StoredTokenWinsOverConfigured(t *testing.T) {
	remote := newMemRemote()
	_, svc := newService(t, remote)
	ctx := context.Background()

	_, err := svc.Configure(ctx, snapshot.ConfigureRequest{Token: ptr("ghp_stored")})
	require.NoError(t, err)
	_, err = svc.PushTarget(ctx, "shifts", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ghp_stored"}, remote.credentials)

	settings, err := svc.Configure(ctx, snapshot.ConfigureRequest{Token: ptr("")})
	require.NoError(t, err)
	assert.True(t, settings.TokenConfigured, "configured token still applies")
	_, err = svc.PushTarget(ctx, "shifts", "")
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", remote.credentials[1])
}

func TestPush_NetworkErrorLeavesLocalStateAlone(t *testing.T) {
	remote := newMemRemote()
	remote.err = &snapshot.NetworkError{Op: "create gist", Err: errors.New("connection refused")}
	store, svc := newService(t, remote)
	seed(t, store)
	ctx := context.Background()

	_, err := svc.PushTarget(ctx, "shifts", "")
	var netErr *snapshot.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, errkind.Network, errkind.Of(err))

	id, err := svc.TargetID(ctx, "shifts")
	require.NoError(t, err)
	assert.Empty(t, id)

	events, err := store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPushTarget_RecreatesMissingTarget(t *testing.T) {
	remote := newMemRemote()
	_, svc := newService(t, remote)
	ctx := context.Background()

	_, err := svc.Configure(ctx, snapshot.ConfigureRequest{Targets: map[string]string{"shifts": "deleted"}})
	require.NoError(t, err)

	result, err := svc.PushTarget(ctx, "shifts", "")
	require.NoError(t, err)
	assert.True(t, result.Created)

	id, err := svc.TargetID(ctx, "shifts")
	require.NoError(t, err)
	assert.Equal(t, result.TargetID, id)
}

func TestTargets_Unknown(t *testing.T) {
	_, svc := newService(t, newMemRemote())
	ctx := context.Background()

	_, err := svc.PushTarget(ctx, "payroll", "")
	assert.ErrorIs(t, err, snapshot.ErrUnknownTarget)
	_, err = svc.PushTarget(ctx, "locations", "")
	assert.ErrorIs(t, err, snapshot.ErrUnknownTarget)

	_, err = svc.PullTarget(ctx, "config")
	assert.ErrorIs(t, err, snapshot.ErrTargetNotFound)

	_, err = svc.Configure(ctx, snapshot.ConfigureRequest{Targets: map[string]string{"payroll": "x"}})
	assert.Error(t, err)
	assert.Equal(t, errkind.Validation, errkind.Of(err))
}

func TestPushLocations(t *testing.T) {
	remote := newMemRemote()
	_, svc := newService(t, remote)
	ctx := context.Background()

	fixes := []snapshot.LocationFix{{EmployeeID: 1, Coord: geo.Coord{Lat: 19.43, Lng: -99.13}, At: fixedNow}}
	first, err := svc.PushLocations(ctx, fixes)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.PushLocations(ctx, fixes)
	require.NoError(t, err)
	assert.Equal(t, first.TargetID, second.TargetID)
	assert.True(t, strings.HasPrefix(remote.descriptions[first.TargetID], "timeclock locations "))

	var doc snapshot.LocationReport
	require.NoError(t, json.Unmarshal(remote.docs[first.TargetID], &doc))
	assert.NotEmpty(t, doc.DeviceID)
	assert.Equal(t, fixes, doc.Fixes)
}

func TestPushLocations_SameFixesSameContent(t *testing.T) {
	remote := newMemRemote()
	_, svc := newService(t, remote, reconcile.WithClock(tickingClock()))
	ctx := context.Background()

	fixes := []snapshot.LocationFix{{EmployeeID: 1, Coord: geo.Coord{Lat: 19.43, Lng: -99.13}, At: fixedNow}}
	first, err := svc.PushLocations(ctx, fixes)
	require.NoError(t, err)
	before := string(remote.docs[first.TargetID])

	second, err := svc.PushLocations(ctx, fixes)
	require.NoError(t, err)
	require.Equal(t, first.TargetID, second.TargetID)
	assert.Equal(t, before, string(remote.docs[second.TargetID]))
}

func TestSettings_DeviceIDIsStable(t *testing.T) {
	_, svc := newService(t, newMemRemote())
	ctx := context.Background()

	a, err := svc.Settings(ctx)
	require.NoError(t, err)
	b, err := svc.Settings(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, a.DeviceID)
	assert.Equal(t, a.DeviceID, b.DeviceID)
	assert.Empty(t, a.Targets)
}

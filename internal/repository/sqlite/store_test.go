package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/repository"
	"github.com/cmlabs-hris/timeclock/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "timeclock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func TestBranchRepository_CRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Branches.Create(ctx, branch.Branch{
		Name:         "Centro",
		Latitude:     ptr(19.43),
		Longitude:    ptr(-99.13),
		RadiusMeters: 150,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Branches.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Centro", got.Name)
	require.NotNil(t, got.Location())
	assert.Equal(t, 19.43, got.Location().Lat)
	assert.Equal(t, 150.0, got.Radius())

	got.Latitude, got.Longitude = nil, nil
	got.Name = "Centro Norte"
	require.NoError(t, store.Branches.Update(ctx, got))

	got, err = store.Branches.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Location())
	assert.Equal(t, "Centro Norte", got.Name)

	require.NoError(t, store.Branches.Delete(ctx, created.ID))
	_, err = store.Branches.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)
	assert.ErrorIs(t, store.Branches.Delete(ctx, created.ID), branch.ErrBranchNotFound)
}

func TestEmployeeRepository_WeakBranchReference(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// Branch 999 does not exist; the reference is kept as-is.
	created, err := store.Employees.Create(ctx, employee.Employee{Name: "Ana", BranchID: ptr(int64(999))})
	require.NoError(t, err)

	list, err := store.Employees.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	require.NotNil(t, list[0].BranchID)
	assert.Equal(t, int64(999), *list[0].BranchID)

	_, err = store.Employees.GetByID(ctx, created.ID+1)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestShiftRepository_GetOpenSession(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := store.Shifts.GetOpenSession(ctx, 7)
	assert.ErrorIs(t, err, shift.ErrNoOpenShift)

	older, err := store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: 7, ClockIn: base})
	require.NoError(t, err)
	tieA, err := store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: 7, ClockIn: base.Add(time.Hour)})
	require.NoError(t, err)
	tieB, err := store.Shifts.Create(ctx, shift.ShiftEvent{
		EmployeeID: 7,
		ClockIn:    base.Add(time.Hour),
		InCoords:   &geo.Coord{Lat: 0, Lng: 0},
	})
	require.NoError(t, err)
	assert.Greater(t, tieB.ID, tieA.ID)

	open, err := store.Shifts.GetOpenSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, tieB.ID, open.ID)
	require.NotNil(t, open.InCoords, "degraded fix is stored, not dropped")
	assert.True(t, open.InCoords.IsZero())

	out := base.Add(9 * time.Hour)
	open.ClockOut = &out
	require.NoError(t, store.Shifts.Update(ctx, open))

	open, err = store.Shifts.GetOpenSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, tieA.ID, open.ID)

	all, err := store.Shifts.List(ctx, shift.ShiftFilter{EmployeeID: ptr(int64(7))})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, older.ID, all[0].ID)
	assert.Nil(t, all[0].InCoords)

	openOnly, err := store.Shifts.List(ctx, shift.ShiftFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, openOnly, 2)
}

func TestShiftRepository_TimesRoundTripInUTCMillis(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	in := time.Date(2026, 3, 2, 8, 0, 0, 123_000_000, time.FixedZone("CST", -6*3600))
	created, err := store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: 1, ClockIn: in})
	require.NoError(t, err)

	got, err := store.Shifts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.ClockIn.Equal(in))
	assert.Equal(t, time.UTC, got.ClockIn.Location())
	assert.Nil(t, got.ClockOut)
}

func TestShiftRepository_DeleteOlderThan(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, 2 * time.Hour} {
		_, err := store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: 1, ClockIn: now.Add(-age)})
		require.NoError(t, err)
	}

	n, err := store.Shifts.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestReplaceAll_KeepsIDsAndIsAtomic(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: 1, ClockIn: in})
	require.NoError(t, err)

	require.NoError(t, store.Shifts.ReplaceAll(ctx, []shift.ShiftEvent{
		{ID: 10, EmployeeID: 2, ClockIn: in},
		{ID: 11, EmployeeID: 2, ClockIn: in.Add(time.Hour), ClockOut: ptr(in.Add(2 * time.Hour))},
	}))

	events, err := store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(10), events[0].ID)
	assert.Equal(t, int64(11), events[1].ID)

	// A failing batch leaves the previous contents in place.
	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Shifts.ReplaceAll(ctx, nil); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	events, err = store.Shifts.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSettingRepository(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	value, err := store.Settings.Get(ctx, "sync.token")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Settings.Put(ctx, "sync.token", "a"))
	require.NoError(t, store.Settings.Put(ctx, "sync.token", "b"))
	require.NoError(t, store.Settings.Put(ctx, "device.id", "dev-1"))

	value, err = store.Settings.Get(ctx, "sync.token")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "b", *value)

	all, err := store.Settings.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "device.id", all[0].Key)

	require.NoError(t, store.Settings.Delete(ctx, "sync.token"))
	value, err = store.Settings.Get(ctx, "sync.token")
	require.NoError(t, err)
	assert.Nil(t, value)
}

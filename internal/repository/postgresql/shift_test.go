package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftRepository_OpenSessionAndClose(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(setup.DB)

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	first, err := repo.Create(ctx, shift.ShiftEvent{
		EmployeeID: 7,
		ClockIn:    base,
		InCoords:   &geo.Coord{Lat: 19.43, Lng: -99.13},
	})
	require.NoError(t, err)
	second, err := repo.Create(ctx, shift.ShiftEvent{EmployeeID: 7, ClockIn: base})
	require.NoError(t, err)

	open, err := repo.GetOpenSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, second.ID, open.ID, "ties on clock-in resolve to the highest id")

	out := base.Add(8 * time.Hour)
	open.ClockOut = &out
	require.NoError(t, repo.Update(ctx, open))

	open, err = repo.GetOpenSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, open.ID)
	require.NotNil(t, open.InCoords)
	assert.Equal(t, 19.43, open.InCoords.Lat)

	_, err = repo.GetOpenSession(ctx, 99)
	assert.ErrorIs(t, err, shift.ErrNoOpenShift)
}

func TestShiftRepository_ReplaceAllKeepsIDs(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(setup.DB)

	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceAll(ctx, []shift.ShiftEvent{
		{ID: 41, EmployeeID: 1, ClockIn: in},
		{ID: 42, EmployeeID: 2, ClockIn: in.Add(time.Hour)},
	}))

	events, err := repo.List(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(41), events[0].ID)
	assert.Equal(t, int64(42), events[1].ID)

	created, err := repo.Create(ctx, shift.ShiftEvent{EmployeeID: 3, ClockIn: in})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(42), "sequence continues after restored ids")
}

func TestBranchRepository_NotFound(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewBranchRepository(setup.DB)

	_, err := repo.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 12345), branch.ErrBranchNotFound)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	store := postgresql.NewStore(setup.DB)

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Settings.Put(ctx, "k", "v"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	value, err := store.Settings.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, value)
}

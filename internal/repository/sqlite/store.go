package sqlite

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock/internal/repository"
)

type transactor struct {
	db *database.SQLite
}

func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, t.db, fn)
}

// NewStore wires every SQLite repository over db.
func NewStore(db *database.SQLite) *repository.Store {
	return repository.NewStore(
		transactor{db: db},
		NewBranchRepository(db),
		NewEmployeeRepository(db),
		NewShiftRepository(db),
		NewSettingRepository(db),
		db.Close,
	)
}

// Open opens the SQLite database at path and returns its store.
func Open(path string) (*repository.Store, error) {
	db, err := database.NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

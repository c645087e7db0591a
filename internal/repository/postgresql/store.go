package postgresql

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock/internal/repository"
)

type transactor struct {
	db *database.DB
}

func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, t.db, fn)
}

// NewStore wires every PostgreSQL repository over db.
func NewStore(db *database.DB) *repository.Store {
	return repository.NewStore(
		transactor{db: db},
		NewBranchRepository(db),
		NewEmployeeRepository(db),
		NewShiftRepository(db),
		NewSettingRepository(db),
		func() error {
			db.Close()
			return nil
		},
	)
}

// Open connects to dsn, runs migrations and returns the store.
func Open(ctx context.Context, dsn string) (*repository.Store, error) {
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

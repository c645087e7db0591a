package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
)

type branchRepositoryImpl struct {
	db  *database.SQLite
	now func() time.Time
}

func NewBranchRepository(db *database.SQLite) branch.BranchRepository {
	return &branchRepositoryImpl{db: db, now: time.Now}
}

const branchColumns = `id, name, lat, lng, radius_meters, created_at, updated_at`

func scanBranch(row interface{ Scan(...any) error }) (branch.Branch, error) {
	var (
		b                    branch.Branch
		lat, lng             sql.NullFloat64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&b.ID, &b.Name, &lat, &lng, &b.RadiusMeters, &createdAt, &updatedAt); err != nil {
		return branch.Branch{}, err
	}
	b.Latitude = float64FromNull(lat)
	b.Longitude = float64FromNull(lng)
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}

// Create implements branch.BranchRepository.
func (r *branchRepositoryImpl) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	now := r.now().UTC().Truncate(time.Millisecond)
	res, err := q.ExecContext(ctx, `
		insert into branches (name, lat, lng, radius_meters, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)
	`, b.Name, nullFloat64(b.Latitude), nullFloat64(b.Longitude), b.RadiusMeters, toMillis(now), toMillis(now))
	if err != nil {
		return branch.Branch{}, fmt.Errorf("failed to create branch: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return branch.Branch{}, fmt.Errorf("failed to read branch id: %w", err)
	}

	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

// GetByID implements branch.BranchRepository.
func (r *branchRepositoryImpl) GetByID(ctx context.Context, id int64) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanBranch(q.QueryRowContext(ctx, `select `+branchColumns+` from branches where id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}
	return b, nil
}

// List implements branch.BranchRepository.
func (r *branchRepositoryImpl) List(ctx context.Context) ([]branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `select `+branchColumns+` from branches order by id asc`)
	if err != nil {
		return nil, fmt.Errorf("failed to get branches: %w", err)
	}
	defer rows.Close()

	branches := []branch.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return branches, nil
}

// Update implements branch.BranchRepository.
func (r *branchRepositoryImpl) Update(ctx context.Context, b branch.Branch) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		update branches
		set name = ?, lat = ?, lng = ?, radius_meters = ?, updated_at = ?
		where id = ?
	`, b.Name, nullFloat64(b.Latitude), nullFloat64(b.Longitude), b.RadiusMeters, toMillis(r.now()), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update branch: %w", err)
	}

	return expectAffected(res, branch.ErrBranchNotFound)
}

// Delete implements branch.BranchRepository.
func (r *branchRepositoryImpl) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `delete from branches where id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}

	return expectAffected(res, branch.ErrBranchNotFound)
}

// ReplaceAll implements branch.BranchRepository.
func (r *branchRepositoryImpl) ReplaceAll(ctx context.Context, branches []branch.Branch) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.ExecContext(ctx, `delete from branches`); err != nil {
			return fmt.Errorf("failed to clear branches: %w", err)
		}

		for _, b := range branches {
			_, err := q.ExecContext(ctx, `
				insert into branches (id, name, lat, lng, radius_meters, created_at, updated_at)
				values (?, ?, ?, ?, ?, ?, ?)
			`, b.ID, b.Name, nullFloat64(b.Latitude), nullFloat64(b.Longitude), b.RadiusMeters,
				toMillis(b.CreatedAt), toMillis(b.UpdatedAt))
			if err != nil {
				return fmt.Errorf("failed to restore branch %d: %w", b.ID, err)
			}
		}
		return nil
	})
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

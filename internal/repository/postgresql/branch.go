package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type branchRepositoryImpl struct {
	db *database.DB
}

func NewBranchRepository(db *database.DB) branch.BranchRepository {
	return &branchRepositoryImpl{db: db}
}

// Create implements branch.BranchRepository.
func (r *branchRepositoryImpl) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO branches (name, lat, lng, radius_meters, created_at, updated_at)
		VALUES ($1, $2, $3, $4, date_trunc('milliseconds', NOW()), date_trunc('milliseconds', NOW()))
		RETURNING id, name, lat, lng, radius_meters, created_at, updated_at
	`

	var result branch.Branch
	err := q.QueryRow(ctx, query, b.Name, b.Latitude, b.Longitude, b.RadiusMeters).Scan(
		&result.ID,
		&result.Name,
		&result.Latitude,
		&result.Longitude,
		&result.RadiusMeters,
		&result.CreatedAt,
		&result.UpdatedAt,
	)

	if err != nil {
		return branch.Branch{}, fmt.Errorf("failed to create branch: %w", err)
	}

	result.CreatedAt = result.CreatedAt.UTC()
	result.UpdatedAt = result.UpdatedAt.UTC()
	return result, nil
}

// GetByID implements branch.BranchRepository.
func (r *branchRepositoryImpl) GetByID(ctx context.Context, id int64) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, lat, lng, radius_meters, created_at, updated_at
		FROM branches
		WHERE id = $1
	`

	var result branch.Branch
	err := q.QueryRow(ctx, query, id).Scan(
		&result.ID,
		&result.Name,
		&result.Latitude,
		&result.Longitude,
		&result.RadiusMeters,
		&result.CreatedAt,
		&result.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}

	result.CreatedAt = result.CreatedAt.UTC()
	result.UpdatedAt = result.UpdatedAt.UTC()
	return result, nil
}

// List implements branch.BranchRepository.
func (r *branchRepositoryImpl) List(ctx context.Context) ([]branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, lat, lng, radius_meters, created_at, updated_at
		FROM branches
		ORDER BY id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get branches: %w", err)
	}
	defer rows.Close()

	branches := []branch.Branch{}
	for rows.Next() {
		var b branch.Branch
		err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Latitude,
			&b.Longitude,
			&b.RadiusMeters,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		b.UpdatedAt = b.UpdatedAt.UTC()
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

	query := `
		UPDATE branches
		SET name = $1, lat = $2, lng = $3, radius_meters = $4, updated_at = date_trunc('milliseconds', NOW())
		WHERE id = $5
	`

	tag, err := q.Exec(ctx, query, b.Name, b.Latitude, b.Longitude, b.RadiusMeters, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return branch.ErrBranchNotFound
	}

	return nil
}

// Delete implements branch.BranchRepository.
func (r *branchRepositoryImpl) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return branch.ErrBranchNotFound
	}

	return nil
}

// ReplaceAll implements branch.BranchRepository.
func (r *branchRepositoryImpl) ReplaceAll(ctx context.Context, branches []branch.Branch) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.Exec(ctx, `DELETE FROM branches`); err != nil {
			return fmt.Errorf("failed to clear branches: %w", err)
		}

		query := `
			INSERT INTO branches (id, name, lat, lng, radius_meters, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, b := range branches {
			_, err := q.Exec(ctx, query, b.ID, b.Name, b.Latitude, b.Longitude, b.RadiusMeters, b.CreatedAt, b.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to restore branch %d: %w", b.ID, err)
			}
		}

		return resetSequence(ctx, q, "branches")
	})
}

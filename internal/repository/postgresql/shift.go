package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `id, employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng`

// shiftRow mirrors a time_entries row with nullable coordinate columns.
type shiftRow struct {
	shift.ShiftEvent
	inLat, inLng, outLat, outLng *float64
}

func (r *shiftRow) dest() []any {
	return []any{
		&r.ID,
		&r.EmployeeID,
		&r.BranchID,
		&r.ClockIn,
		&r.ClockOut,
		&r.inLat,
		&r.inLng,
		&r.outLat,
		&r.outLng,
	}
}

func (r *shiftRow) event() shift.ShiftEvent {
	e := r.ShiftEvent
	e.ClockIn = e.ClockIn.UTC()
	if e.ClockOut != nil {
		out := e.ClockOut.UTC()
		e.ClockOut = &out
	}
	e.InCoords = toCoord(r.inLat, r.inLng)
	e.OutCoords = toCoord(r.outLat, r.outLng)
	return e
}

func toCoord(lat, lng *float64) *geo.Coord {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Coord{Lat: *lat, Lng: *lng}
}

func fromCoord(c *geo.Coord) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Lat, c.Lng
	return &lat, &lng
}

// Create implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, e shift.ShiftEvent) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	inLat, inLng := fromCoord(e.InCoords)
	outLat, outLng := fromCoord(e.OutCoords)

	query := `
		INSERT INTO time_entries (employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := q.QueryRow(ctx, query, e.EmployeeID, e.BranchID, e.ClockIn, e.ClockOut, inLat, inLng, outLat, outLng).Scan(&e.ID)
	if err != nil {
		return shift.ShiftEvent{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	return e, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id int64) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	var row shiftRow
	err := q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM time_entries WHERE id = $1`, id).Scan(row.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftEvent{}, shift.ErrShiftNotFound
		}
		return shift.ShiftEvent{}, fmt.Errorf("failed to get time entry: %w", err)
	}

	return row.event(), nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, e shift.ShiftEvent) error {
	q := GetQuerier(ctx, r.db)

	inLat, inLng := fromCoord(e.InCoords)
	outLat, outLng := fromCoord(e.OutCoords)

	query := `
		UPDATE time_entries
		SET employee_id = $1, branch_id = $2, clock_in = $3, clock_out = $4,
			in_lat = $5, in_lng = $6, out_lat = $7, out_lng = $8
		WHERE id = $9
	`

	tag, err := q.Exec(ctx, query, e.EmployeeID, e.BranchID, e.ClockIn, e.ClockOut, inLat, inLng, outLat, outLng, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	// Build dynamic filter
	query := `SELECT ` + shiftColumns + ` FROM time_entries`
	var conditions []string
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.OpenOnly {
		conditions = append(conditions, "clock_out IS NULL")
	}
	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("clock_in >= $%d", argIdx))
		args = append(args, *filter.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY clock_in ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get time entries: %w", err)
	}
	defer rows.Close()

	events := []shift.ShiftEvent{}
	for rows.Next() {
		var row shiftRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		events = append(events, row.event())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return events, nil
}

// GetOpenSession implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetOpenSession(ctx context.Context, employeeID int64) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND clock_out IS NULL
		ORDER BY clock_in DESC, id DESC
		LIMIT 1
	`

	var row shiftRow
	if err := q.QueryRow(ctx, query, employeeID).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftEvent{}, shift.ErrNoOpenShift
		}
		return shift.ShiftEvent{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return row.event(), nil
}

// DeleteOlderThan implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM time_entries WHERE clock_in < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old time entries: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ReplaceAll implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) ReplaceAll(ctx context.Context, events []shift.ShiftEvent) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.Exec(ctx, `DELETE FROM time_entries`); err != nil {
			return fmt.Errorf("failed to clear time entries: %w", err)
		}

		query := `
			INSERT INTO time_entries (id, employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for _, e := range events {
			inLat, inLng := fromCoord(e.InCoords)
			outLat, outLng := fromCoord(e.OutCoords)
			_, err := q.Exec(ctx, query, e.ID, e.EmployeeID, e.BranchID, e.ClockIn, e.ClockOut, inLat, inLng, outLat, outLng)
			if err != nil {
				return fmt.Errorf("failed to restore time entry %d: %w", e.ID, err)
			}
		}

		return resetSequence(ctx, q, "time_entries")
	})
}

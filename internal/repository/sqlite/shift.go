package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

type shiftRepositoryImpl struct {
	db *database.SQLite
}

func NewShiftRepository(db *database.SQLite) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `id, employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng`

func scanShift(row interface{ Scan(...any) error }) (shift.ShiftEvent, error) {
	var (
		e                            shift.ShiftEvent
		branchID, clockOut           sql.NullInt64
		clockIn                      int64
		inLat, inLng, outLat, outLng sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.EmployeeID, &branchID, &clockIn, &clockOut, &inLat, &inLng, &outLat, &outLng)
	if err != nil {
		return shift.ShiftEvent{}, err
	}
	e.BranchID = int64FromNull(branchID)
	e.ClockIn = fromMillis(clockIn)
	e.ClockOut = timeFromNull(clockOut)
	e.InCoords = coordFromNull(inLat, inLng)
	e.OutCoords = coordFromNull(outLat, outLng)
	return e, nil
}

func coordFromNull(lat, lng sql.NullFloat64) *geo.Coord {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &geo.Coord{Lat: lat.Float64, Lng: lng.Float64}
}

func coordArgs(c *geo.Coord) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

// Create implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, e shift.ShiftEvent) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	inLat, inLng := coordArgs(e.InCoords)
	outLat, outLng := coordArgs(e.OutCoords)

	res, err := q.ExecContext(ctx, `
		insert into time_entries (employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng)
		values (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EmployeeID, nullInt64(e.BranchID), toMillis(e.ClockIn), nullMillis(e.ClockOut), inLat, inLng, outLat, outLng)
	if err != nil {
		return shift.ShiftEvent{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return shift.ShiftEvent{}, fmt.Errorf("failed to read time entry id: %w", err)
	}

	e.ID = id
	return e, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id int64) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanShift(q.QueryRowContext(ctx, `select `+shiftColumns+` from time_entries where id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shift.ShiftEvent{}, shift.ErrShiftNotFound
		}
		return shift.ShiftEvent{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return e, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, e shift.ShiftEvent) error {
	q := GetQuerier(ctx, r.db)

	inLat, inLng := coordArgs(e.InCoords)
	outLat, outLng := coordArgs(e.OutCoords)

	res, err := q.ExecContext(ctx, `
		update time_entries
		set employee_id = ?, branch_id = ?, clock_in = ?, clock_out = ?,
			in_lat = ?, in_lng = ?, out_lat = ?, out_lng = ?
		where id = ?
	`, e.EmployeeID, nullInt64(e.BranchID), toMillis(e.ClockIn), nullMillis(e.ClockOut),
		inLat, inLng, outLat, outLng, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	return expectAffected(res, shift.ErrShiftNotFound)
}

// List implements shift.ShiftRepository. Results are ordered by clock-in.
func (r *shiftRepositoryImpl) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != nil {
		where = append(where, "employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.OpenOnly {
		where = append(where, "clock_out is null")
	}
	if filter.Since != nil {
		where = append(where, "clock_in >= ?")
		args = append(args, toMillis(*filter.Since))
	}

	query := `select ` + shiftColumns + ` from time_entries`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += ` order by clock_in asc, id asc`
	if filter.Limit > 0 {
		query += ` limit ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get time entries: %w", err)
	}
	defer rows.Close()

	events := []shift.ShiftEvent{}
	for rows.Next() {
		e, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		events = append(events, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return events, nil
}

// GetOpenSession implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetOpenSession(ctx context.Context, employeeID int64) (shift.ShiftEvent, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanShift(q.QueryRowContext(ctx, `
		select `+shiftColumns+` from time_entries
		where employee_id = ? and clock_out is null
		order by clock_in desc, id desc
		limit 1
	`, employeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shift.ShiftEvent{}, shift.ErrNoOpenShift
		}
		return shift.ShiftEvent{}, fmt.Errorf("failed to get open session: %w", err)
	}
	return e, nil
}

// DeleteOlderThan implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `delete from time_entries where clock_in < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old time entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// ReplaceAll implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) ReplaceAll(ctx context.Context, events []shift.ShiftEvent) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.ExecContext(ctx, `delete from time_entries`); err != nil {
			return fmt.Errorf("failed to clear time entries: %w", err)
		}

		for _, e := range events {
			inLat, inLng := coordArgs(e.InCoords)
			outLat, outLng := coordArgs(e.OutCoords)
			_, err := q.ExecContext(ctx, `
				insert into time_entries (id, employee_id, branch_id, clock_in, clock_out, in_lat, in_lng, out_lat, out_lng)
				values (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, e.ID, e.EmployeeID, nullInt64(e.BranchID), toMillis(e.ClockIn), nullMillis(e.ClockOut),
				inLat, inLng, outLat, outLng)
			if err != nil {
				return fmt.Errorf("failed to restore time entry %d: %w", e.ID, err)
			}
		}
		return nil
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
)

type settingRepositoryImpl struct {
	db *database.SQLite
}

func NewSettingRepository(db *database.SQLite) setting.SettingRepository {
	return &settingRepositoryImpl{db: db}
}

// Get implements setting.SettingRepository.
func (r *settingRepositoryImpl) Get(ctx context.Context, key string) (*string, error) {
	q := GetQuerier(ctx, r.db)

	var value string
	err := q.QueryRowContext(ctx, `select value from settings where key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return &value, nil
}

// Put implements setting.SettingRepository.
func (r *settingRepositoryImpl) Put(ctx context.Context, key string, value string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		insert into settings (key, value) values (?, ?)
		on conflict (key) do update set value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put setting %q: %w", key, err)
	}
	return nil
}

// Delete implements setting.SettingRepository.
func (r *settingRepositoryImpl) Delete(ctx context.Context, key string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.ExecContext(ctx, `delete from settings where key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// List implements setting.SettingRepository.
func (r *settingRepositoryImpl) List(ctx context.Context) ([]setting.Setting, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `select key, value from settings order by key asc`)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := []setting.Setting{}
	for rows.Next() {
		var s setting.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return settings, nil
}

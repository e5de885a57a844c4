package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/david/funding-gateway/internal/settings"
)

const (
	selectSettingSQL = `SELECT value FROM app_settings WHERE key = $1`
	upsertSettingSQL = `INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// SettingsStore persists notification settings in the app_settings table.
type SettingsStore struct {
	db DBTX
}

func NewSettingsStore(db DBTX) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, selectSettingSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) Load(ctx context.Context) (settings.NotificationSettings, error) {
	data, err := s.get(ctx, settings.Key)
	if errors.Is(err, settings.ErrNotFound) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.NotificationSettings{}, err
	}
	return settings.Decode(data), nil
}

func (s *SettingsStore) Save(ctx context.Context, ns settings.NotificationSettings) error {
	data, err := settings.Encode(ns)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertSettingSQL, settings.Key, data); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", settings.Key, err)
	}
	return nil
}

package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/funding-gateway/internal/settings"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestApplyMigrations_AppliesPending(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)")).
		WithArgs("001_app_settings.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS app_settings").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (filename) VALUES ($1)")).
		WithArgs("001_app_settings.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, ApplyMigrations(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrations_SkipsApplied(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)")).
		WithArgs("001_app_settings.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, ApplyMigrations(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrations_ExecFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnError(errors.New("permission denied"))

	err := ApplyMigrations(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations")
}

func TestSettingsStore_LoadDefaultsWhenMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSettingSQL)).
		WithArgs(settings.Key).
		WillReturnError(pgx.ErrNoRows)

	got, err := NewSettingsStore(mock).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsStore_LoadStored(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSettingSQL)).
		WithArgs(settings.Key).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).
			AddRow([]byte(`{"enabled":false,"frequency":"weekly","budgetThreshold":250000}`)))

	got, err := NewSettingsStore(mock).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, settings.FrequencyWeekly, got.Frequency)
	assert.Equal(t, 250000.0, got.BudgetThreshold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsStore_LoadMalformed(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSettingSQL)).
		WithArgs(settings.Key).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`"oops`)))

	got, err := NewSettingsStore(mock).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
}

func TestSettingsStore_LoadError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSettingSQL)).
		WithArgs(settings.Key).
		WillReturnError(errors.New("connection reset"))

	_, err := NewSettingsStore(mock).Load(context.Background())
	assert.Error(t, err)
}

func TestSettingsStore_Save(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO app_settings").
		WithArgs(settings.Key, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewSettingsStore(mock).Save(context.Background(), settings.Defaults()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsStore_SaveRejectsInvalid(t *testing.T) {
	mock := newMock(t)
	s := settings.Defaults()
	s.BudgetThreshold = -10

	err := NewSettingsStore(mock).Save(context.Background(), s)
	assert.True(t, errors.Is(err, settings.ErrInvalidSettings))
	assert.NoError(t, mock.ExpectationsWereMet())
}

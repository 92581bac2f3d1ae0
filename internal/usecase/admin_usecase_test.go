package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/usecase"
)

// memorySettings is a SettingsStore that keeps saved settings in memory.
type memorySettings struct {
	cfg   *config.Config
	saved *config.Settings
}

func (m *memorySettings) Current() *config.Config { return m.cfg }

func (m *memorySettings) CurrentSettings() config.Settings {
	return config.Settings{
		Port:      m.cfg.Server.Port,
		WebAdmins: m.cfg.Admin.WebAdmins,
		Readonly:  m.cfg.Admin.Readonly,
	}
}

func (m *memorySettings) SaveSettings(s config.Settings) (*config.Config, error) {
	m.saved = &s
	return m.cfg, nil
}

type adminFixture struct {
	settings *memorySettings
	lines    *MockLineRepository
	ops      *MockOperatorRepository
	stations *MockStationRepository
	requests *MockRequestRepository
	uc       *usecase.AdminUseCase
}

func newAdminFixture(t *testing.T) *adminFixture {
	cfg := testConfig()
	cfg.Server.Port = 30789
	cfg.Log.File = filepath.Join(t.TempDir(), "railway.log")

	f := &adminFixture{
		settings: &memorySettings{cfg: cfg},
		lines:    &MockLineRepository{},
		ops:      &MockOperatorRepository{},
		stations: &MockStationRepository{},
		requests: &MockRequestRepository{},
	}
	access := usecase.NewAccess(f.ops, f.settings, zap.NewNop())
	f.uc = usecase.NewAdminUseCase(f.settings, access, f.lines, f.ops, f.stations, f.requests, zap.NewNop())
	return f
}

func TestAdminUseCase_SaveSettings(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := newAdminFixture(t)
		s := config.Settings{Port: 8080, WebAdmins: []string{adminID}, MaintenanceMode: true}

		require.NoError(t, f.uc.SaveSettings(adminUser(), s))
		require.NotNil(t, f.settings.saved)
		assert.Equal(t, 8080, f.settings.saved.Port)
	})

	t.Run("invalid port and admin id", func(t *testing.T) {
		f := newAdminFixture(t)
		s := config.Settings{Port: 70000, WebAdmins: []string{"not-a-snowflake"}}

		err := f.uc.SaveSettings(adminUser(), s)

		assert.ErrorIs(t, err, errors.ErrInvalidSettings)
		assert.Nil(t, f.settings.saved)
	})

	t.Run("members cannot", func(t *testing.T) {
		f := newAdminFixture(t)
		assert.ErrorIs(t, f.uc.SaveSettings(memberUser(), config.Settings{}), errors.ErrAdminOnly)
	})
}

func TestAdminUseCase_Logs(t *testing.T) {
	f := newAdminFixture(t)
	path := f.settings.cfg.Log.File

	t.Run("missing file", func(t *testing.T) {
		got, err := f.uc.Logs(adminUser(), 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	lines := []string{
		`{"level":"info","ts":"2024-03-01T12:00:00.000Z","logger":"api","msg":"Server started"}`,
		`not json at all`,
		``,
		`{"level":"warn","ts":"2024-03-01T12:00:01.500+0100","msg":"Write attempted in readonly mode","user":"x"}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	t.Run("parsed", func(t *testing.T) {
		got, err := f.uc.Logs(adminUser(), 0)
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, "info", got[0].Level)
		assert.Equal(t, "api", got[0].Logger)
		assert.Equal(t, "Server started", got[0].Message)
		require.NotNil(t, got[0].Time)
		assert.Equal(t, 2024, got[0].Time.Year())

		assert.Empty(t, got[1].Level)
		assert.Equal(t, "not json at all", got[1].Raw)

		require.NotNil(t, got[2].Time)
		assert.Equal(t, 500, got[2].Time.Nanosecond()/1e6)
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		got, err := f.uc.Logs(adminUser(), 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "warn", got[0].Level)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, f.uc.ClearLogs(adminUser()))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})
}

func TestAdminUseCase_Stats(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	f.lines.On("Count", ctx, "").Return(12, nil)
	f.lines.On("CountStationLinks", ctx).Return(40, nil)
	f.ops.On("Count", ctx).Return(3, nil)
	f.stations.On("Count", ctx).Return(25, nil)
	f.requests.On("Count", ctx, domain.RequestPending).Return(2, nil)
	f.requests.On("Count", ctx, domain.RequestStatus("")).Return(9, nil)

	got, err := f.uc.Stats(ctx, adminUser())

	require.NoError(t, err)
	assert.Equal(t, 12, got.Lines)
	assert.Equal(t, 40, got.StationLinks)
	assert.Equal(t, 3, got.Operators)
	assert.Equal(t, 25, got.Stations)
	assert.Equal(t, 2, got.PendingRequests)
	assert.Equal(t, 9, got.Requests)
}

package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/usecase"
)

func TestOverviewUseCase_Get(t *testing.T) {
	ctx := context.Background()
	lines := &MockLineRepository{}
	cfg := testConfig()
	uc := usecase.NewOverviewUseCase(lines, staticConfig{cfg}, zap.NewNop())

	lines.On("GetAll", ctx).Return([]domain.Line{
		{Name: "S10", Type: domain.LineTypePublic, Status: domain.StatusRunning},
		{Name: "S2", Type: domain.LineTypePublic, Status: domain.StatusRunning, Notice: "  "},
		{Name: "S1", Type: domain.LineTypePublic, Status: domain.StatusRunning, Notice: "<b>Works</b>"},
		{Name: "M1", Type: domain.LineTypeMetro, Status: domain.StatusSuspended, Stations: []string{"<u>A</u>"}},
		{Name: "F1", Type: domain.LineType("ferry"), Status: domain.StatusRunning},
	}, nil)

	t.Run("grouped and sorted", func(t *testing.T) {
		got, err := uc.Get(ctx)
		require.NoError(t, err)

		require.Len(t, got.Types, len(domain.LineTypes))
		assert.Equal(t, domain.LineTypePublic, got.Types[0].Type)

		statuses := got.Types[0].Statuses
		require.Len(t, statuses, 4)
		assert.Equal(t, "suspended", statuses[0].Status)
		assert.Equal(t, "running", statuses[1].Status)
		assert.Equal(t, "possible_delays", statuses[2].Status)
		assert.Equal(t, "no_scheduled", statuses[3].Status)

		running := statuses[1].Lines
		require.Len(t, running, 3)
		assert.Equal(t, "S1", running[0].Name)
		assert.Equal(t, "S2", running[1].Name)
		assert.Equal(t, "S10", running[2].Name)

		require.NotNil(t, running[0].Notice)
		assert.Equal(t, "<b>Works</b>", *running[0].Notice)
		assert.Nil(t, running[1].Notice)

		metro := got.Types[2]
		assert.Equal(t, domain.LineTypeMetro, metro.Type)
		require.Len(t, metro.Statuses[0].Lines, 1)
		assert.Equal(t, []string{"A"}, metro.Statuses[0].Lines[0].Stations)

		// пустые группы остаются пустыми списками
		assert.NotNil(t, got.Types[4].Statuses[2].Lines)
		assert.Nil(t, got.Maintenance)
	})

	t.Run("maintenance banner", func(t *testing.T) {
		cfg.Admin.MaintenanceMode = true
		cfg.Admin.MaintenanceMessage = "Back at 18:00"
		defer func() { cfg.Admin.MaintenanceMode = false }()

		got, err := uc.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, got.Maintenance)
		assert.Equal(t, "Back at 18:00", got.Maintenance.Message)
	})
}

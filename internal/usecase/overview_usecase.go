package usecase

import (
	"context"
	"fmt"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/sanitize"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// overviewStatuses is the display order of status groups.
var overviewStatuses = []domain.LineStatus{
	domain.StatusSuspended,
	domain.StatusRunning,
	domain.StatusPossibleDelays,
	domain.StatusNoService,
}

// OverviewUseCase builds the front page.
type OverviewUseCase struct {
	lines  repository.LineRepository
	cfg    ConfigSource
	logger *zap.Logger
}

func NewOverviewUseCase(lines repository.LineRepository, cfg ConfigSource, logger *zap.Logger) *OverviewUseCase {
	return &OverviewUseCase{
		lines:  lines,
		cfg:    cfg,
		logger: logger,
	}
}

// Get groups every line by type and status. Groups keep a fixed order,
// empty ones included, and lines inside a group sort naturally by name.
func (uc *OverviewUseCase) Get(ctx context.Context) (*dto.Overview, error) {
	lines, err := uc.lines.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	groups := make(map[domain.LineType]map[domain.LineStatus][]dto.OverviewLine, len(domain.LineTypes))
	for _, t := range domain.LineTypes {
		groups[t] = make(map[domain.LineStatus][]dto.OverviewLine, len(overviewStatuses))
	}

	for _, l := range lines {
		byStatus, ok := groups[l.Type]
		if !ok {
			uc.logger.Debug("Skipping line with unknown type", zap.String("line", l.Name), zap.String("type", string(l.Type)))
			continue
		}
		byStatus[l.Status] = append(byStatus[l.Status], toOverviewLine(l))
	}

	out := &dto.Overview{Types: make([]dto.TypeGroup, 0, len(domain.LineTypes))}
	for _, t := range domain.LineTypes {
		tg := dto.TypeGroup{Type: t, Statuses: make([]dto.StatusGroup, 0, len(overviewStatuses))}
		for _, s := range overviewStatuses {
			items := groups[t][s]
			if items == nil {
				items = []dto.OverviewLine{}
			}
			utils.SortNatural(items, func(l dto.OverviewLine) string { return l.Name })
			tg.Statuses = append(tg.Statuses, dto.StatusGroup{Status: s.Key(), Lines: items})
		}
		out.Types = append(out.Types, tg)
	}

	if admin := uc.cfg.Current().Admin; admin.MaintenanceMode {
		out.Maintenance = &dto.Maintenance{Message: admin.MaintenanceMessage}
	}
	return out, nil
}

func toOverviewLine(l domain.Line) dto.OverviewLine {
	ol := dto.OverviewLine{
		Name:         l.Name,
		Color:        l.Color,
		Status:       l.Status,
		Operator:     l.Operator,
		OperatorUID:  l.OperatorUID,
		Stations:     sanitize.StationNames(l.Stations),
		Compositions: l.Compositions,
	}
	if notice := sanitize.Notice(l.Notice); notice != "" {
		ol.Notice = &notice
	}
	return ol
}

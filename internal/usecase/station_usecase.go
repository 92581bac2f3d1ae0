package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// StationUseCase holds the station rules.
type StationUseCase struct {
	stations  repository.StationRepository
	lines     repository.LineRepository
	cacheRepo repository.CacheRepository
	access    *Access
	logger    *zap.Logger
}

func NewStationUseCase(
	stations repository.StationRepository,
	lines repository.LineRepository,
	cacheRepo repository.CacheRepository,
	access *Access,
	logger *zap.Logger,
) *StationUseCase {
	return &StationUseCase{
		stations:  stations,
		lines:     lines,
		cacheRepo: cacheRepo,
		access:    access,
		logger:    logger,
	}
}

func (uc *StationUseCase) GetAll(ctx context.Context) ([]domain.Station, error) {
	stations, err := uc.stations.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stations: %w", err)
	}
	return stations, nil
}

// Overview is the stations page: every station plus the counters above
// the list. A station counts as active when its status is "open".
func (uc *StationUseCase) Overview(ctx context.Context) (*dto.StationsOverview, error) {
	stations, err := uc.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	links, err := uc.lines.CountStationLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count station links: %w", err)
	}

	active := 0
	for _, s := range stations {
		if s.Status != nil && *s.Status == "open" {
			active++
		}
	}

	return &dto.StationsOverview{
		Stations:        stations,
		Total:           len(stations),
		Active:          active,
		ConnectingLines: links,
	}, nil
}

// Details returns a station with the lines calling there and statistics.
func (uc *StationUseCase) Details(ctx context.Context, name string) (*dto.StationDetails, error) {
	station, err := uc.stations.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get station %q: %w", name, err)
	}
	if station == nil {
		return nil, errors.ErrStationNotFound
	}

	lines, err := uc.stations.LinesAtStation(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get lines at %q: %w", name, err)
	}

	stats, err := uc.stations.Statistics(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get statistics of %q: %w", name, err)
	}

	return &dto.StationDetails{
		Station:    *station,
		Lines:      lines,
		Statistics: stats,
	}, nil
}

func (uc *StationUseCase) Search(ctx context.Context, term string) (*dto.StationSearchResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return &dto.StationSearchResponse{Stations: []domain.StationRef{}}, nil
	}

	found, err := uc.stations.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search stations %q: %w", term, err)
	}
	return &dto.StationSearchResponse{Stations: found}, nil
}

// Create returns the station called name, creating it when it is missing.
// A station that is on no line does not show up in the feeds, so nothing is
// invalidated.
func (uc *StationUseCase) Create(ctx context.Context, user *domain.SessionUser, name string) (*dto.CreateStationResponse, error) {
	if err := uc.access.RequireMember(ctx, user); err != nil {
		return nil, err
	}
	if !domain.ValidStationName(name) {
		return nil, errors.ErrInvalidStationName
	}

	exists, err := uc.stations.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check station %q: %w", name, err)
	}

	id, err := uc.stations.Create(ctx, name)
	if err != nil {
		if stderrors.Is(err, domain.ErrInvalidStationName) {
			return nil, errors.ErrInvalidStationName
		}
		return nil, fmt.Errorf("create station %q: %w", name, err)
	}

	if !exists {
		uc.logger.Info("Created station", zap.String("user", user.Username), zap.String("station", name), zap.Int64("station_id", id))
	}
	return &dto.CreateStationResponse{ID: id, Name: name, Created: !exists}, nil
}

func (uc *StationUseCase) Update(ctx context.Context, user *domain.SessionUser, id int64, upd domain.StationUpdate) error {
	if err := uc.access.RequireMember(ctx, user); err != nil {
		return err
	}
	if upd.Name != nil && !domain.ValidStationName(*upd.Name) {
		return errors.ErrInvalidStationName
	}

	ok, err := uc.stations.Update(ctx, id, upd)
	if err != nil {
		switch {
		case stderrors.Is(err, domain.ErrDuplicate):
			return errors.ErrStationExists
		case stderrors.Is(err, domain.ErrInvalidStationName):
			return errors.ErrInvalidStationName
		}
		return fmt.Errorf("update station %d: %w", id, err)
	}
	if !ok {
		// unknown id or nothing to write
		exists, err := uc.stations.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get station %d: %w", id, err)
		}
		if exists == nil {
			return errors.ErrStationNotFound
		}
		return errors.ErrInvalidRequest.WithMessage("No valid fields provided")
	}

	uc.invalidate(ctx)
	uc.logger.Info("Updated station", zap.String("user", user.Username), zap.Int64("station_id", id))
	return nil
}

// Delete removes a station and, with a warning, its line links.
func (uc *StationUseCase) Delete(ctx context.Context, user *domain.SessionUser, id int64) error {
	if err := uc.access.RequireMember(ctx, user); err != nil {
		return err
	}

	ok, err := uc.stations.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete station %d: %w", id, err)
	}
	if !ok {
		return errors.ErrStationNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Deleted station", zap.String("user", user.Username), zap.Int64("station_id", id))
	return nil
}

// station names appear in the lines feed
func (uc *StationUseCase) invalidate(ctx context.Context) {
	if err := uc.cacheRepo.Delete(ctx, linesFeedKey); err != nil {
		uc.logger.Warn("Failed to invalidate feeds", zap.Error(err))
	}
}

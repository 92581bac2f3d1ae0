package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

// StationRepository stores stations and their place on lines.
type StationRepository interface {
	GetAll(ctx context.Context) ([]domain.Station, error)
	GetByID(ctx context.Context, id int64) (*domain.Station, error)
	GetByName(ctx context.Context, name string) (*domain.Station, error)
	GetByLine(ctx context.Context, lineName string) ([]domain.LineStation, error)
	LinesAtStation(ctx context.Context, stationName string) ([]domain.StationLine, error)

	// Create is get-or-create: an existing name returns its id.
	Create(ctx context.Context, name string) (int64, error)

	// Update returns domain.ErrDuplicate when renaming onto another station.
	Update(ctx context.Context, id int64, upd domain.StationUpdate) (bool, error)

	Delete(ctx context.Context, id int64) (bool, error)
	AddToLine(ctx context.Context, lineName, stationName string, order int) (bool, error)
	RemoveFromLine(ctx context.Context, lineName, stationName string) (bool, error)
	Reorder(ctx context.Context, lineName string, stationNames []string) (bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, term string) ([]domain.StationRef, error)
	Statistics(ctx context.Context, name string) (*domain.StationStatistics, error)
}

package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

const (
	linesFeedKey     = "railway:feed:lines"
	operatorsFeedKey = "railway:feed:operators"
)

// LineUseCase holds the line rules: access, validation, feed invalidation.
type LineUseCase struct {
	lines     repository.LineRepository
	stations  repository.StationRepository
	cacheRepo repository.CacheRepository
	access    *Access
	feedTTL   time.Duration
	logger    *zap.Logger
}

func NewLineUseCase(
	lines repository.LineRepository,
	stations repository.StationRepository,
	cacheRepo repository.CacheRepository,
	access *Access,
	feedTTL time.Duration,
	logger *zap.Logger,
) *LineUseCase {
	return &LineUseCase{
		lines:     lines,
		stations:  stations,
		cacheRepo: cacheRepo,
		access:    access,
		feedTTL:   feedTTL,
		logger:    logger,
	}
}

func (uc *LineUseCase) GetAll(ctx context.Context) ([]domain.Line, error) {
	lines, err := uc.lines.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (uc *LineUseCase) Get(ctx context.Context, name string) (*domain.Line, error) {
	line, err := uc.lines.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get line %q: %w", name, err)
	}
	if line == nil {
		return nil, errors.ErrLineNotFound
	}
	return line, nil
}

func (uc *LineUseCase) GetByOperator(ctx context.Context, uid string) ([]domain.Line, error) {
	lines, err := uc.lines.GetByOperator(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get lines of %q: %w", uid, err)
	}
	return lines, nil
}

// Feed returns the JSON served at /lines.json, read by the in-game
// display scripts. It is cached for feedTTL and dropped on every write.
func (uc *LineUseCase) Feed(ctx context.Context) ([]byte, error) {
	return cachedFeed(ctx, uc.cacheRepo, uc.logger, linesFeedKey, uc.feedTTL, func() (interface{}, error) {
		return uc.GetAll(ctx)
	})
}

func (uc *LineUseCase) Create(ctx context.Context, user *domain.SessionUser, req dto.CreateLineRequest) (*domain.Line, error) {
	if err := uc.access.CanWrite(user); err != nil {
		return nil, err
	}

	in, err := req.ToInput()
	if err != nil {
		return nil, invalidLineInput(err)
	}
	if !in.Type.Valid() {
		return nil, errors.ErrInvalidLineType
	}

	exists, err := uc.lines.Exists(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("check line %q: %w", in.Name, err)
	}
	if exists {
		return nil, errors.ErrLineExists
	}

	if _, err := uc.access.RequireOperator(ctx, user, in.OperatorUID); err != nil {
		return nil, err
	}

	if _, err := uc.lines.Create(ctx, in); err != nil {
		switch {
		case stderrors.Is(err, domain.ErrDuplicate):
			return nil, errors.ErrLineExists
		case stderrors.Is(err, domain.ErrOperatorNotFound):
			return nil, errors.ErrOperatorNotFound
		case stderrors.Is(err, domain.ErrInvalidStationName):
			return nil, errors.ErrInvalidStationName
		}
		return nil, fmt.Errorf("create line %q: %w", in.Name, err)
	}

	uc.invalidate(ctx)
	uc.logger.Info("Added new line",
		zap.String("user", user.Username),
		zap.String("line", in.Name),
		zap.String("type", string(in.Type)),
	)
	return uc.Get(ctx, in.Name)
}

func (uc *LineUseCase) Update(ctx context.Context, user *domain.SessionUser, name string, req dto.UpdateLineRequest) error {
	line, err := uc.authorize(ctx, user, name)
	if err != nil {
		return err
	}

	upd, err := req.ToUpdate()
	if err != nil {
		return invalidLineInput(err)
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return errors.ErrInvalidLineType
	}

	if upd.Name != nil && *upd.Name != name {
		exists, err := uc.lines.Exists(ctx, *upd.Name)
		if err != nil {
			return fmt.Errorf("check line %q: %w", *upd.Name, err)
		}
		if exists {
			return errors.ErrLineExists
		}
	}

	changes := describeChanges(line, upd)

	ok, err := uc.lines.Update(ctx, name, upd)
	if err != nil {
		switch {
		case stderrors.Is(err, domain.ErrDuplicate):
			return errors.ErrLineExists
		case stderrors.Is(err, domain.ErrInvalidStationName):
			return errors.ErrInvalidStationName
		}
		return fmt.Errorf("update line %q: %w", name, err)
	}
	if !ok {
		return errors.ErrLineNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Updated line",
		zap.String("user", user.Username),
		zap.String("line", name),
		zap.String("changes", changes),
	)
	return nil
}

func (uc *LineUseCase) Delete(ctx context.Context, user *domain.SessionUser, name string) error {
	if _, err := uc.authorize(ctx, user, name); err != nil {
		return err
	}

	ok, err := uc.lines.Delete(ctx, name)
	if err != nil {
		return fmt.Errorf("delete line %q: %w", name, err)
	}
	if !ok {
		return errors.ErrLineNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Deleted line", zap.String("user", user.Username), zap.String("line", name))
	return nil
}

// Stations returns the stations of a line in order.
func (uc *LineUseCase) Stations(ctx context.Context, name string) ([]domain.LineStation, error) {
	if _, err := uc.Get(ctx, name); err != nil {
		return nil, err
	}
	stations, err := uc.stations.GetByLine(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get stations of %q: %w", name, err)
	}
	return stations, nil
}

func (uc *LineUseCase) AddStation(ctx context.Context, user *domain.SessionUser, name string, req dto.LineStationRequest) error {
	if _, err := uc.authorize(ctx, user, name); err != nil {
		return err
	}
	if !domain.ValidStationName(req.Name) {
		return errors.ErrInvalidStationName
	}

	ok, err := uc.stations.AddToLine(ctx, name, req.Name, req.Order)
	if err != nil {
		return fmt.Errorf("add %q to line %q: %w", req.Name, name, err)
	}
	if !ok {
		return errors.ErrLineNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Added station to line",
		zap.String("user", user.Username),
		zap.String("line", name),
		zap.String("station", req.Name),
		zap.Int("order", req.Order),
	)
	return nil
}

func (uc *LineUseCase) RemoveStation(ctx context.Context, user *domain.SessionUser, name, station string) error {
	if _, err := uc.authorize(ctx, user, name); err != nil {
		return err
	}

	ok, err := uc.stations.RemoveFromLine(ctx, name, station)
	if err != nil {
		return fmt.Errorf("remove %q from line %q: %w", station, name, err)
	}
	if !ok {
		return errors.ErrStationNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Removed station from line",
		zap.String("user", user.Username),
		zap.String("line", name),
		zap.String("station", station),
	)
	return nil
}

func (uc *LineUseCase) ReorderStations(ctx context.Context, user *domain.SessionUser, name string, req dto.ReorderStationsRequest) error {
	if _, err := uc.authorize(ctx, user, name); err != nil {
		return err
	}

	ok, err := uc.stations.Reorder(ctx, name, req.Stations)
	if err != nil {
		return fmt.Errorf("reorder stations of %q: %w", name, err)
	}
	if !ok {
		return errors.ErrLineNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Reordered stations", zap.String("user", user.Username), zap.String("line", name))
	return nil
}

// authorize loads the line and checks the user may edit it. Lines whose
// operator was deleted can only be edited by admins.
func (uc *LineUseCase) authorize(ctx context.Context, user *domain.SessionUser, name string) (*domain.Line, error) {
	if err := uc.access.CanWrite(user); err != nil {
		return nil, err
	}

	line, err := uc.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if line.OperatorUID == "" {
		if !uc.access.IsAdmin(user) {
			return nil, errors.ErrOperatorNotFound
		}
		return line, nil
	}

	if _, err := uc.access.RequireOperator(ctx, user, line.OperatorUID); err != nil {
		return nil, err
	}
	return line, nil
}

func (uc *LineUseCase) invalidate(ctx context.Context) {
	if err := uc.cacheRepo.Delete(ctx, linesFeedKey, operatorsFeedKey); err != nil {
		uc.logger.Warn("Failed to invalidate feeds", zap.Error(err))
	}
}

func invalidLineInput(err error) error {
	switch {
	case stderrors.Is(err, domain.ErrInvalidColor):
		return errors.ErrInvalidColor
	case stderrors.Is(err, domain.ErrInvalidLineStatus):
		return errors.ErrInvalidLineStatus
	case stderrors.Is(err, domain.ErrInvalidStationName):
		return errors.ErrInvalidStationName
	}
	return errors.ErrInvalidRequest.WithMessage(err.Error())
}

// describeChanges renders "field: old -> new" pairs for the audit log.
// Values are cut at 50 characters and newlines are flattened.
func describeChanges(line *domain.Line, upd domain.LineUpdate) string {
	var changes []string
	add := func(field, from, to string) {
		if from == to {
			return
		}
		changes = append(changes, fmt.Sprintf("%s: %s -> %s", field, clip(from), clip(to)))
	}

	if upd.Name != nil {
		add("name", line.Name, *upd.Name)
	}
	if upd.Color != nil {
		add("color", line.Color.String(), upd.Color.String())
	}
	if upd.Status != nil {
		add("status", line.Status.String(), upd.Status.String())
	}
	if upd.Type != nil {
		add("type", string(line.Type), string(*upd.Type))
	}
	if upd.Notice != nil {
		add("notice", line.Notice, *upd.Notice)
	}
	if upd.Stations != nil {
		add("stations", strings.Join(line.Stations, ", "), strings.Join(*upd.Stations, ", "))
	}
	if upd.Compositions != nil {
		add("compositions", compositionsString(line.Compositions), compositionsString(*upd.Compositions))
	}

	if len(changes) == 0 {
		return "no changes"
	}
	return strings.Join(changes, ", ")
}

func clip(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	if r := []rune(s); len(r) > 50 {
		return string(r[:50])
	}
	return s
}

func compositionsString(comps []domain.Composition) string {
	parts := make([]string, 0, len(comps))
	for _, c := range comps {
		if c.Name != "" {
			parts = append(parts, c.Name+"="+c.Parts)
		} else {
			parts = append(parts, c.Parts)
		}
	}
	return strings.Join(parts, ", ")
}

// cachedFeed serves key from the cache or builds it with load. Cache
// failures only cost a rebuild.
func cachedFeed(
	ctx context.Context,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	key string,
	ttl time.Duration,
	load func() (interface{}, error),
) ([]byte, error) {
	cached, err := cacheRepo.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read feed from cache", zap.String("key", key), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode feed %s: %w", key, err)
	}

	if err := cacheRepo.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("Failed to cache feed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/pkg/validator"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// SettingsStore reads and writes the admin-editable part of the config.
type SettingsStore interface {
	ConfigSource
	CurrentSettings() config.Settings
	SaveSettings(s config.Settings) (*config.Config, error)
}

// AdminUseCase backs the admin panel: settings, log file and counters.
type AdminUseCase struct {
	settings  SettingsStore
	access    *Access
	lines     repository.LineRepository
	operators repository.OperatorRepository
	stations  repository.StationRepository
	requests  repository.OperatorRequestRepository
	logger    *zap.Logger
}

func NewAdminUseCase(
	settings SettingsStore,
	access *Access,
	lines repository.LineRepository,
	operators repository.OperatorRepository,
	stations repository.StationRepository,
	requests repository.OperatorRequestRepository,
	logger *zap.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		settings:  settings,
		access:    access,
		lines:     lines,
		operators: operators,
		stations:  stations,
		requests:  requests,
		logger:    logger,
	}
}

func (uc *AdminUseCase) Settings(user *domain.SessionUser) (*config.Settings, error) {
	if err := uc.access.RequireAdmin(user); err != nil {
		return nil, err
	}
	s := uc.settings.CurrentSettings()
	return &s, nil
}

// SaveSettings validates s, writes it to the config file and swaps in
// the reloaded config.
func (uc *AdminUseCase) SaveSettings(user *domain.SessionUser, s config.Settings) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	if err := validator.Validate(&s); err != nil {
		return errors.ErrInvalidSettings.WithDetails(map[string]interface{}{
			"fields": validator.Fields(err),
		})
	}

	if _, err := uc.settings.SaveSettings(s); err != nil {
		uc.logger.Error("Error updating settings", zap.String("user", user.Username), zap.Error(err))
		return fmt.Errorf("save settings: %w", err)
	}

	uc.logger.Info("Updated application settings", zap.String("user", user.Username), logger.Admin())
	return nil
}

// Logs returns the last limit entries of the log file (all when limit
// is not positive). A missing file reads as empty.
func (uc *AdminUseCase) Logs(user *domain.SessionUser, limit int) ([]dto.LogEntry, error) {
	if err := uc.access.RequireAdmin(user); err != nil {
		return nil, err
	}

	path := uc.settings.Current().Log.File
	if path == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("Log file is not configured")
	}

	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return []dto.LogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	entries := []dto.LogEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, ParseLogLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// ClearLogs truncates the log file. The logger keeps appending to it.
func (uc *AdminUseCase) ClearLogs(user *domain.SessionUser) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	path := uc.settings.Current().Log.File
	if path == "" {
		return errors.ErrInvalidRequest.WithMessage("Log file is not configured")
	}
	if err := os.Truncate(path, 0); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		uc.logger.Error("Error clearing server logs", zap.String("user", user.Username), zap.Error(err))
		return fmt.Errorf("truncate log file: %w", err)
	}

	uc.logger.Info("Server logs cleared", zap.String("user", user.Username), logger.Admin())
	return nil
}

func (uc *AdminUseCase) Stats(ctx context.Context, user *domain.SessionUser) (*dto.AdminStats, error) {
	if err := uc.access.RequireAdmin(user); err != nil {
		return nil, err
	}

	var (
		stats dto.AdminStats
		err   error
	)
	if stats.Lines, err = uc.lines.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("count lines: %w", err)
	}
	if stats.StationLinks, err = uc.lines.CountStationLinks(ctx); err != nil {
		return nil, fmt.Errorf("count station links: %w", err)
	}
	if stats.Operators, err = uc.operators.Count(ctx); err != nil {
		return nil, fmt.Errorf("count operators: %w", err)
	}
	if stats.Stations, err = uc.stations.Count(ctx); err != nil {
		return nil, fmt.Errorf("count stations: %w", err)
	}
	if stats.PendingRequests, err = uc.requests.Count(ctx, domain.RequestPending); err != nil {
		return nil, fmt.Errorf("count pending requests: %w", err)
	}
	if stats.Requests, err = uc.requests.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	return &stats, nil
}

// zapEntry is the shape of a line written by the JSON logger.
type zapEntry struct {
	Level  string `json:"level"`
	TS     string `json:"ts"`
	Logger string `json:"logger"`
	Msg    string `json:"msg"`
}

var logTimeLayouts = []string{
	"2006-01-02T15:04:05.000Z0700",
	time.RFC3339Nano,
}

// ParseLogLine decodes one JSON log line; anything else is kept raw.
func ParseLogLine(line string) dto.LogEntry {
	var e zapEntry
	if err := json.Unmarshal([]byte(line), &e); err != nil || e.Msg == "" {
		return dto.LogEntry{Raw: line}
	}

	entry := dto.LogEntry{
		Level:   e.Level,
		Logger:  e.Logger,
		Message: e.Msg,
		Raw:     line,
	}
	for _, layout := range logTimeLayouts {
		if t, err := time.Parse(layout, e.TS); err == nil {
			entry.Time = &t
			break
		}
	}
	return entry
}

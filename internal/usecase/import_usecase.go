package usecase

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// ImportUseCase loads the JSON files of the old file-based deployment.
type ImportUseCase struct {
	operators repository.OperatorRepository
	lines     repository.LineRepository
	users     repository.UserRepository
	tx        repository.Transactor
	logger    *zap.Logger
}

func NewImportUseCase(
	operators repository.OperatorRepository,
	lines repository.LineRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) *ImportUseCase {
	return &ImportUseCase{
		operators: operators,
		lines:     lines,
		users:     users,
		tx:        tx,
		logger:    logger,
	}
}

// Import runs in one transaction: either everything new is imported or
// nothing is. Operators and lines that already exist are skipped, so the
// import can be repeated.
func (uc *ImportUseCase) Import(ctx context.Context, operators []dto.LegacyOperator, lines []dto.LegacyLine) (*dto.ImportResult, error) {
	result := &dto.ImportResult{}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, op := range operators {
			imported, err := uc.importOperator(ctx, op)
			if err != nil {
				return err
			}
			if imported {
				result.Operators++
			} else {
				result.SkippedOperators++
			}
		}

		for _, l := range lines {
			imported, err := uc.importLine(ctx, l)
			if err != nil {
				return err
			}
			if imported {
				result.Lines++
			} else {
				result.SkippedLines++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Legacy import finished",
		zap.Int("operators", result.Operators),
		zap.Int("lines", result.Lines),
		zap.Int("skipped_operators", result.SkippedOperators),
		zap.Int("skipped_lines", result.SkippedLines))
	return result, nil
}

func (uc *ImportUseCase) importOperator(ctx context.Context, op dto.LegacyOperator) (bool, error) {
	if op.Name == "" {
		return false, fmt.Errorf("operator without a name")
	}
	uid := op.UID
	if uid == "" {
		uid = slug.Make(op.Name)
	}

	exists, err := uc.operators.Exists(ctx, uid)
	if err != nil {
		return false, err
	}
	if exists {
		uc.logger.Info("Operator already present, skipping", zap.String("uid", uid))
		return false, nil
	}

	color := domain.DefaultOperatorColor
	if op.Color != "" {
		if color, err = domain.ParseColor(op.Color); err != nil {
			return false, fmt.Errorf("operator %q: %w", op.Name, err)
		}
	}

	for _, id := range op.Users {
		if err := uc.users.Ensure(ctx, id); err != nil {
			return false, fmt.Errorf("operator %q user %s: %w", op.Name, id, err)
		}
	}

	if _, err := uc.operators.Create(ctx, domain.OperatorInput{
		UID:   uid,
		Name:  op.Name,
		Color: color,
		Short: op.Short,
		Users: op.Users,
	}); err != nil {
		return false, fmt.Errorf("operator %q: %w", op.Name, err)
	}

	uc.logger.Info("Migrated operator", zap.String("uid", uid), zap.Int("users", len(op.Users)))
	return true, nil
}

func (uc *ImportUseCase) importLine(ctx context.Context, l dto.LegacyLine) (bool, error) {
	if l.Name == "" {
		return false, fmt.Errorf("line without a name")
	}

	exists, err := uc.lines.Exists(ctx, l.Name)
	if err != nil {
		return false, err
	}
	if exists {
		uc.logger.Info("Line already present, skipping", zap.String("line", l.Name))
		return false, nil
	}

	in := domain.LineInput{
		Name:        l.Name,
		Notice:      l.Notice,
		Type:        domain.LineTypePublic,
		OperatorUID: l.OperatorUID,
		Stations:    l.Stations,
	}
	if in.Color, err = domain.ParseColor(l.Color); err != nil {
		return false, fmt.Errorf("line %q: %w", l.Name, err)
	}
	if l.Status != "" {
		if in.Status, err = domain.ParseLineStatus(l.Status); err != nil {
			return false, fmt.Errorf("line %q: %w", l.Name, err)
		}
	}
	if l.Type != "" {
		in.Type = domain.LineType(l.Type)
		if !in.Type.Valid() {
			return false, fmt.Errorf("line %q: unknown type %q", l.Name, l.Type)
		}
	}

	// very old files only carry the operator name
	if in.OperatorUID == "" && l.Operator != "" {
		op, err := uc.operators.GetByName(ctx, l.Operator)
		if err != nil {
			return false, err
		}
		if op == nil {
			return false, fmt.Errorf("line %q operator %q: %w", l.Name, l.Operator, domain.ErrOperatorNotFound)
		}
		in.OperatorUID = op.UID
	}

	if _, err := uc.lines.Create(ctx, in); err != nil {
		return false, fmt.Errorf("line %q: %w", l.Name, err)
	}

	uc.logger.Info("Migrated line", zap.String("line", l.Name), zap.Int("stations", len(l.Stations)))
	return true, nil
}

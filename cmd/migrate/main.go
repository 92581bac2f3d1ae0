package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/repository/mysql"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

func main() {
	operatorsFile := flag.String("operators", "", "legacy operators.json to import")
	linesFile := flag.String("lines", "", "legacy lines.json to import")
	flag.Parse()

	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, "")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	db, err := mysql.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := mysql.Migrate(ctx, db, log.Named("migrate")); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	if *operatorsFile == "" && *linesFile == "" {
		log.Info("Schema is up to date, nothing to import")
		return
	}

	var operators []dto.LegacyOperator
	if err := readJSON(*operatorsFile, &operators); err != nil {
		log.Fatal("Failed to read operators", zap.String("file", *operatorsFile), zap.Error(err))
	}
	var lines []dto.LegacyLine
	if err := readJSON(*linesFile, &lines); err != nil {
		log.Fatal("Failed to read lines", zap.String("file", *linesFile), zap.Error(err))
	}

	store := mysql.NewStore(db, log.Named("store"))
	importUC := usecase.NewImportUseCase(
		mysql.NewOperatorRepository(store, log.Named("operator_repository")),
		mysql.NewLineRepository(store, log.Named("line_repository")),
		mysql.NewUserRepository(store, log.Named("user_repository")),
		store,
		log.Named("import"),
	)

	result, err := importUC.Import(ctx, operators, lines)
	if err != nil {
		log.Fatal("Import failed, nothing was written", zap.Error(err))
	}

	fmt.Printf("Imported %d operators and %d lines (%d and %d already present)\n",
		result.Operators, result.Lines, result.SkippedOperators, result.SkippedLines)
}

// readJSON leaves dst untouched for an empty path.
func readJSON(path string, dst interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

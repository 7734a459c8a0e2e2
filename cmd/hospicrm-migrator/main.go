package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"hospicrm-migrator/internal/config"
	"hospicrm-migrator/internal/database"
	"hospicrm-migrator/internal/importer"
	"hospicrm-migrator/internal/logger"
	"hospicrm-migrator/internal/registry"
	"hospicrm-migrator/internal/repository"
	"hospicrm-migrator/internal/snapshot"
)

func main() {
	os.Exit(run())
}

// Exit codes: 0 every entity type complete, 1 at least one incomplete,
// 2 fatal error (unreadable snapshot or target store failure).
func run() int {
	cfg := config.Load()
	if len(os.Args) > 1 {
		cfg.Snapshot.Path = os.Args[1]
	}

	source := cfg.Snapshot.Path
	if source == "" {
		source = cfg.Snapshot.URL
	}
	if source == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s <snapshot.json|snapshot.xlsx>\n(or set SNAPSHOT_PATH / SNAPSHOT_URL)\n", os.Args[0])
		return 2
	}

	zapLog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "hospicrm-migrator")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLog.Sync()

	// Snapshot first: an unreadable snapshot must abort before any writes.
	snap, err := snapshot.NewStore(zapLog).Load(source)
	if err != nil {
		zapLog.Error("Snapshot load failed", zap.Error(err))
		return 2
	}

	var target repository.TargetStore
	if cfg.DryRun {
		zapLog.Info("Dry run: using in-memory target store")
		target = repository.NewMemoryTargetStore()
	} else {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			zapLog.Error("Target database unavailable", zap.Error(err))
			return 2
		}
		defer database.Close(db)
		target = repository.NewPostgresTargetStore(db)
	}

	imp := importer.New(target, registry.New(), zapLog)
	imp.DryRun = cfg.DryRun

	rep, runErr := imp.Run(context.Background(), snap)
	if err := rep.Write(cfg.ReportPath); err != nil {
		zapLog.Error("Failed to write report", zap.Error(err))
		return 2
	}

	if runErr != nil {
		return 2
	}
	return rep.ExitCode()
}

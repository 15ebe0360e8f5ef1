package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"
	"time"

	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/storage/db"
	"picture-analysis/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.PoolFor(db.RoleMigrate))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	version, err := db.SchemaVersion(sqlDB)
	if err != nil {
		telemetry.Warn("migrate.version_unknown", map[string]any{"error": err.Error()})
		return
	}
	telemetry.Info("migrate.completed", map[string]any{"version": version})
}

package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/classroom/internal/config"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// LatestVersion asks MigrateTo for every embedded migration.
const LatestVersion int32 = -1

const versionTable = "classroom_schema_version"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to the latest embedded migration.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	return MigrateTo(ctx, logger, cfg, LatestVersion)
}

// MigrateTo moves the schema to target, applying or rolling back
// migrations as needed. Each step is logged.
func MigrateTo(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, target int32) error {
	conn, err := pgx.Connect(ctx, DSN(cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer conn.Close(ctx)

	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	latest := int32(len(m.Migrations))
	if target == LatestVersion {
		target = latest
	}
	if target < 0 || target > latest {
		return fmt.Errorf("migration version %d out of range 0..%d", target, latest)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if from == target {
		logger.Info().Int32("version", from).Msg("database schema up to date")
		return nil
	}

	m.OnStart = func(sequence int32, name, direction, _ string) {
		logger.Info().
			Int32("sequence", sequence).
			Str("migration", name).
			Str("direction", direction).
			Msg("applying migration")
	}

	if err := m.MigrateTo(ctx, target); err != nil {
		return fmt.Errorf("failed to migrate schema from %d to %d: %w", from, target, err)
	}

	logger.Info().Int32("from", from).Int32("to", target).Msg("database schema migrated")
	return nil
}

func newMigrator(ctx context.Context, conn *pgx.Conn) (*tern.Migrator, error) {
	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to construct migrator: %w", err)
	}

	files, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	if err := m.LoadMigrations(files); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	return m, nil
}

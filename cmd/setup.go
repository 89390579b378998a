package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
//
// With --reset every table is dropped and recreated, which forgets the session, the cached
// profile and the submission history.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if err := r.openStore(); err != nil {
		return err
	}

	if cmd.Bool("reset") {
		if err := shared.ResetDatabase(r.db); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		r.client.SetSession(nil)
		r.logger.Warn("database reset", "path", r.config.Database.Path)
	}

	status, err := shared.CheckMigrations(r.db)
	if err != nil {
		return err
	}
	if !status.UpToDate() {
		return fmt.Errorf("%d migrations still pending", len(status.Pending))
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, status.Current)
}

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Edit [backend] url to point at your Moodify server.\n")
	return nil
}

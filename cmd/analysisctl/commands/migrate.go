package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"picture-analysis/internal/shared/storage/db"
)

func newMigrateCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.config()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			sqlDB, err := db.Open(cmd.Context(), cfg.DatabaseURL, db.PoolFor(db.RoleMigrate))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
				return err
			}
			version, err := db.SchemaVersion(sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.Out, "schema at version %d\n", version)
			return nil
		},
	}
}

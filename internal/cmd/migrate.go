package cmd

import (
	"log/slog"

	"github.com/scrimcore/scrimcore/internal/config"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var down bool

	command := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, errConfig := config.Read()
			if errConfig != nil {
				return errConfig
			}

			action := database.MigrateUp
			if down {
				action = database.MigrateDn
			}

			db := database.New(conf.DatabaseDSN, false, conf.DatabaseLogQueries)
			if errMigrate := db.Migrate(action); errMigrate != nil {
				return errMigrate
			}

			slog.Info("Migration completed successfully")

			return nil
		},
	}

	command.Flags().BoolVarP(&down, "down", "d", false, "Fully reverts all migrations")

	return command
}

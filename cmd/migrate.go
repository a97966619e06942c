package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/wablast/internal/auditlog"
	"github.com/jmehdipour/wablast/internal/config"
	"github.com/jmehdipour/wablast/internal/db"
	"github.com/jmehdipour/wablast/internal/logger"
	"github.com/jmehdipour/wablast/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schedule and log tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer logger.Sync()

		ctx := cmd.Context()

		schedulesDB, err := db.NewSQLiteConnection(cfg.Storage.SchedulesDSN, db.SQLiteOpts{})
		if err != nil {
			return fmt.Errorf("open schedules db: %w", err)
		}
		defer schedulesDB.Close()

		logsDB, err := db.NewSQLiteConnection(cfg.Storage.LogsDSN, db.SQLiteOpts{})
		if err != nil {
			return fmt.Errorf("open logs db: %w", err)
		}
		defer logsDB.Close()

		if err := repository.NewSchedulesRepository(schedulesDB).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate schedules: %w", err)
		}
		if err := auditlog.NewStore(logsDB, logger.Log).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate logs: %w", err)
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}

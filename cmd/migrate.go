package cmd

import (
	"fmt"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/config"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/logger"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/database/migration"

	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations manually.",
	Long:  `Applies every pending migration from the migrations directory to DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.NewLogger(cfg.Env)
		defer log.Sync()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		source, err := migration.SourceURL(dir)
		if err != nil {
			return err
		}

		if err := migration.Migrate(cfg.DatabaseURL, source, true, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		return nil
	},
}

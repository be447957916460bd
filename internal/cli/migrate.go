package cli

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := database.MigrateUp(dbOptions(cfg)); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := database.MigrateDown(dbOptions(cfg), steps); err != nil {
				return err
			}
			cmd.Println("migrations rolled back")
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")

	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

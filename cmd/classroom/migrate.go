package main

import (
	"github.com/deppfellow/classroom/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	var target int32

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Apply pending database migrations. With --to the schema is moved up or down to that version; 0 drops everything.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			return database.MigrateTo(cmd.Context(), &a.log, a.cfg, target)
		},
	}
	cmd.Flags().Int32Var(&target, "to", database.LatestVersion, "target schema version (-1 for latest)")

	return cmd
}

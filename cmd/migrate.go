package cmd

import (
	"fmt"

	"contractabi/internal/adapter/outbound/repository"
	"contractabi/internal/application/common/slogger"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates and returns the migrate command.
func newMigrateCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Create the database schema used to store extracted ABIs.

The statements are idempotent and run in one transaction: the schema named by
database.schema, the contract_abis table and the per-function abi_functions
table with their indexes. --print writes the statements without connecting.

Configuration for database connection is loaded from config files and environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig()
			if printOnly {
				for _, stmt := range repository.SchemaStatements(cfg.Database.Schema) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
				}
				return nil
			}

			ctx := cmd.Context()
			pool, err := repository.NewDatabaseConnection(ctx, repository.DatabaseConfigFrom(cfg.Database))
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(ctx, pool, cfg.Database.Schema); err != nil {
				return err
			}
			slogger.Info(ctx, "Database migrated", slogger.Fields{"schema": cfg.Database.Schema})
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the migration statements instead of running them")
	return cmd
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newMigrateCmd())
}

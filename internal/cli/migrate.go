package cli

import (
	"github.com/spf13/cobra"

	"github.com/ecoquest/ecoquest-api/cmd/app"
)

// NewMigrateCmd applies the database schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(*configPath)
		},
	}
}

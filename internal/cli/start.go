package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ecoquest/ecoquest-api/cmd/app"
)

// NewStartCmd builds the subcommand that serves the API.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Start(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", os.Getenv("PORT"), "port to listen on, overrides api.port")

	return cmd
}

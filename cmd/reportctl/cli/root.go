// Package cli implements the reportctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/garment-dashboard/internal/app"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	backendURL string
	redisAddr  string
}

// config loads the environment configuration with flag overrides applied.
func (o *options) config() (*app.Config, error) {
	return app.LoadConfig(func(c *app.Config) {
		if o.backendURL != "" {
			c.BackendURL = o.backendURL
		}
		if o.redisAddr != "" {
			c.RedisAddr = o.redisAddr
		}
	})
}

// NewRootCmd creates the root reportctl command.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Inspect garment reports from the terminal",
		Long:          "reportctl reads the same report endpoints as the dashboard and manages the shared report cache.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # List every report page
  reportctl list

  # Show daily sales for a date
  reportctl show sales/daily --filter date=2024-03-01

  # Warm the shared cache through the worker
  reportctl warmup`,
	}

	cmd.PersistentFlags().StringVar(&opts.backendURL, "backend-url", "", "Report API base URL (overrides BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address (overrides REDIS_ADDR)")

	cmd.AddCommand(
		newListCmd(),
		newShowCmd(opts),
		newWarmupCmd(opts),
		newInvalidateCmd(opts),
		newQueueCmd(opts),
	)
	return cmd
}

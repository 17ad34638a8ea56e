package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpggio/chronos/internal/config"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.LoadFrom(o.configPath)
}

// Execute runs the chronos command line until it finishes or the process
// receives SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the top-level "chronos" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{configPath: os.Getenv("CHRONOS_CONFIG_PATH")}

	root := &cobra.Command{
		Use:          "chronos",
		Short:        "Coding activity tracker fed by editor heartbeats",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to a YAML config file")

	root.AddCommand(
		newServeCmd(opts),
		newRebuildCmd(opts),
		newUserCmd(opts),
	)

	return root
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/feedlog/internal/config"
	"github.com/raphi011/feedlog/internal/log"
	"github.com/raphi011/feedlog/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage feedlog configuration.

Config file: ~/.config/feedlog/config.toml
FEEDLOG_CACHE_DIR and FEEDLOG_CHUNK_SIZE override the file.`,
		Example: `  feedlog config init      # Create default config
  feedlog config show      # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  feedlog config init      # Create config
  feedlog config init -f   # Overwrite existing config
  feedlog config init -s   # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if stdout {
				out.Print(config.DefaultContent())
				return nil
			}

			path, err := config.Init(force)
			if err != nil {
				if !force {
					return fmt.Errorf("%w (use -f to overwrite)", err)
				}
				return err
			}

			log.FromContext(ctx).Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Example: `  feedlog config show          # Show config
  feedlog config show --json   # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			out := output.FromContext(ctx)

			if jsonOutput {
				return out.JSON(cfg)
			}

			printConfig(out, cfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printConfig(out *output.Printer, cfg *config.Config) {
	timeout := "none"
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.String()
	}
	metricsFile := cfg.MetricsFile
	if metricsFile == "" {
		metricsFile = "(disabled)"
	}

	out.Printf("cache_dir: %s\n", cfg.CacheDir)
	out.Printf("chunk_size: %d\n", cfg.ChunkSize)
	out.Printf("timeout: %s\n", timeout)
	out.Printf("user_agent: %s\n", cfg.UserAgent)
	out.Printf("compact_on_load: %v\n", cfg.CompactOnLoad)
	out.Printf("metrics_file: %s\n", metricsFile)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tofu/tofu-labeller/internal/config"
)

type rootFlags struct {
	port      int
	logLevel  string
	dataDir   string
	exportDir string
	headless  bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "tofu",
		Short: "Label moments on a video timeline",
		Long: `Tofu runs a local labelling agent. A front end plays the video and
reports the player position; shortcuts stamp labelled marks, a range
control adjusts each mark, and the marks export to CSV.

Running tofu without a subcommand is the same as "tofu serve".`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", config.Version, config.GitCommit, config.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.IntVarP(&flags.port, "port", "p", 0, "HTTP port (overrides "+config.EnvPort+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory holding the database")
	pf.StringVar(&flags.exportDir, "export-dir", "", "default directory for exports")
	pf.BoolVar(&flags.headless, "headless", false, "run without the system tray")

	cmd.AddCommand(newServeCmd(&flags))
	cmd.AddCommand(newBindingsCmd(&flags))

	return cmd
}

// loadConfig resolves the config from file, env and flags.
func loadConfig(flags rootFlags) (*config.EnvConfig, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Apply(config.Overrides{
		Port:      flags.port,
		LogLevel:  flags.logLevel,
		DataDir:   flags.dataDir,
		ExportDir: flags.exportDir,
		Headless:  flags.headless,
	}); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/oxy-animgraph/internal/config"
	"github.com/Carmen-Shannon/oxy-animgraph/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "animgraph",
		Short: "animgraph compiles and plays animation graph assets",
		Long: `animgraph validates and compiles authored animation graph assets, prints
their compiled form and plays them offline against keyframe clips.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to an animgraph YAML config file")
	cmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newCompileCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newSimulateCmd(a))
	return cmd
}

// setup loads the config file and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewWriter(cmd.ErrOrStderr(), level)
	return nil
}

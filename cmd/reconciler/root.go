package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"timesheet-reconciliation/internal/config"
	"timesheet-reconciliation/internal/logging"
)

// app carries state shared between the root command and its subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	settings   *config.Settings
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "reconciler",
		Short: "Reconcile Protime timesheets against staffing agency invoices",
		Long: `Reconciler compares the hours and invoice amounts recorded in Protime
with those billed by the staffing agency, per employee per week, and writes
every discrepancy above a minute threshold to a report.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./"+config.DefaultConfigFile+" when present)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "auto", "log format: auto, console, json")
	mustBind(a.v, "log.level", flags.Lookup("log-level"))
	mustBind(a.v, "log.format", flags.Lookup("log-format"))

	root.AddCommand(newRunCmd(a), newVersionCmd())
	return root
}

// setup loads settings and installs the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	envFiles := config.LoadEnvFiles(config.EnvFiles...)
	settings, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings

	logger, err := logging.Configure(logging.Config{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if len(envFiles) > 0 {
		logger.Debug().Strs("files", envFiles).Msg("Loaded environment files")
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("Using config file")
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), &logger))
	return nil
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag for %s: %v", key, err))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "reconciler %s (%s)\n", Version, Commit)
			return err
		},
	}
}

// Package cli wires the termdeposit subcommands onto cobra.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/termdeposit/config"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// Execute runs the root command and exits non-zero on failure. An interrupt
// cancels the run between models.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the persistent
// flags are parsed.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "termdeposit",
		Short:        "Explore the bank marketing data and benchmark term-deposit classifiers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "configuration file (yaml, json or toml)")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: console|json")
	pf.String("output-dir", "", "directory for reports and plots")
	pf.String("data", "", "read a local semicolon CSV instead of downloading")

	cmd.AddCommand(
		fetchCmd(a),
		exploreCmd(a),
		evaluateCmd(a),
		modelsCmd(a),
		runCmd(a),
	)
	return cmd
}

// setup loads the configuration, binds the persistent flags over it and
// installs the zerolog logger.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.New()
	v := a.cfg.Viper()
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"output.dir":     "output-dir",
		"dataset.path":   "data",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return err
		}
	}
	if a.cfgPath != "" {
		if err := a.cfg.LoadFromFile(a.cfgPath); err != nil {
			return err
		}
	} else if err := a.cfg.Validate(); err != nil {
		return err
	}

	zl, err := log.NewZerologLogger(log.ZerologOptions{
		Out:     cmd.ErrOrStderr(),
		Level:   a.cfg.LogLevel(),
		Console: a.cfg.LogFormat() == "console",
		Service: "termdeposit",
	})
	if err != nil {
		return err
	}
	zl.RouteWarnings()
	log.SetLogger(zl)
	a.logger = log.GetLoggerWithName("cli")
	return nil
}

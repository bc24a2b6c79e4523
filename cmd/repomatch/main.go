package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repomatch/internal/config"
	"repomatch/internal/logging"
	"repomatch/internal/metrics"
	"repomatch/internal/theme"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgPath  string
	logLevel string
	cfg      config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "repomatch",
		Short:         "Recommend GitHub repositories and developers",
		Long:          theme.Banner() + "\nFind repositories and developers related to a GitHub account's interests.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path (default $"+config.ConfigPathEnvVar+" or "+config.DefaultConfigPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newInitCmd(),
		newRecommendCmd(a),
		newKeywordsCmd(a),
		newServeCmd(a),
		newCacheCmd(a),
	)
	return root
}

// setup loads configuration and starts the ambient services. Commands
// annotated with skipConfig run without it.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations[annotationSkipConfig] == "true" {
		return nil
	}
	cfg, err := config.Load(config.ResolvePath(a.cfgPath))
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	metrics.StartServer(cfg.Metrics.Addr)
	a.cfg = cfg
	return nil
}

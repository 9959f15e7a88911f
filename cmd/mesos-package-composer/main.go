// mesos-package-composer builds installable .deb and .rpm packages of
// Apache Mesos from a source checkout.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
)

var (
	cfgFile  string
	logLevel string
)

func createRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mesos-package-composer",
		Short:         "Build installable Mesos packages from source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Accept underscore spellings of multi-word flags.
	root.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to the YAML config file (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	root.PersistentFlags().BoolP("verbose", "v", false,
		"Shorthand for --log-level debug")

	root.AddCommand(createBuildCommand())
	root.AddCommand(createDetectCommand())
	root.AddCommand(createValidateCommand())
	root.AddCommand(createVersionCommand())

	attachLoggingHooks(root)
	return root
}

// resolveRequestedLogLevel picks the log level: an explicit --log-level
// wins; otherwise --verbose maps to debug; empty means keep the default.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil {
		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			return "debug"
		}
	}
	return ""
}

// attachLoggingHooks wires the log-level resolution into every subcommand
// so the level is applied before any command logic runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			if lvl := resolveRequestedLogLevel(cmd); lvl != "" {
				return logger.SetLevel(lvl)
			}
			return nil
		}
	}
}

// loadConfig returns the defaults when no config file was named, the
// validated file contents otherwise. The config's own log level applies
// unless a flag overrode it.
func loadConfig(cmd *cobra.Command) (*config.GlobalConfig, error) {
	cfg := config.DefaultGlobalConfig()
	if cfgFile != "" {
		loaded, err := config.LoadGlobalConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	helpers := config.NewConfigHelpers(cfg)
	if resolveRequestedLogLevel(cmd) == "" && helpers.LogLevel() != "" {
		if err := logger.SetLevel(helpers.LogLevel()); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	defer logger.Sync()
	if err := createRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

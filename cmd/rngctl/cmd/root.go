package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	strictFlag      bool
	verboseFlag     bool
	configFlag      string
	logLevelFlag    string
	personalization string
	userEventsFlag  bool
)

// RootCmd is the base command when rngctl is called without subcommands.
var RootCmd = &cobra.Command{
	Use:   "rngctl",
	Short: "Operate the corerand entropy pool / DRBG core from the command line",
	Long: `rngctl starts the process-wide entropy pool and collector, fetches
seed material, and drives the SP 800-90A DRBGs, for manual inspection and
smoke-testing of the corerand core.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verboseFlag {
			logrus.SetLevel(logrus.DebugLevel)
		} else if lvl, err := logrus.ParseLevel(viper.GetString("log-level")); err == nil {
			logrus.SetLevel(lvl)
		}
		return nil
	},
}

// Execute adds all child commands and runs the root command. Called once
// from main.main.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads an optional config file (--config / RNGCTL_CONFIG) and
// binds RNGCTL_-prefixed environment variables over every viper-bound
// persistent and subcommand flag (all but --verbose), following the config-dir/AutomaticEnv layering
// rancher-elemental-toolkit's config.ReadConfigRun uses: flag > env > config
// file > flag default.
func loadConfig() error {
	viper.SetEnvPrefix("RNGCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	path := configFlag
	if path == "" {
		path = viper.GetString("config")
	}
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "escalate non-fatal probe failures during slow poll")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to a YAML/JSON/TOML config file (RNGCTL_CONFIG)")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "logrus level when --verbose is not set (RNGCTL_LOG_LEVEL)")
	RootCmd.PersistentFlags().StringVar(&personalization, "personalization", "", "personalization string folded into DRBG instantiation (RNGCTL_PERSONALIZATION)")
	RootCmd.PersistentFlags().BoolVar(&userEventsFlag, "user-events", false, "enable user-input event capture for the duration of the command (RNGCTL_USER_EVENTS)")

	_ = viper.BindPFlag("strict", RootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("log-level", RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("personalization", RootCmd.PersistentFlags().Lookup("personalization"))
	_ = viper.BindPFlag("user-events", RootCmd.PersistentFlags().Lookup("user-events"))
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"echoload/internal/banner"
	"echoload/internal/logger"
)

var (
	cfgFile string

	// set by the root PersistentPreRunE
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "echoload",
	Short: "echoload - user-simulation load generator",
	Long: `
echoload simulates users that wait 1-5 seconds between requests to
GET /echo and reports any non-200 response.

Commands:
  run      Start a load test (headless, or --tui for the dashboard)
  echo     Serve a local /echo target to test against
  history  Show previous runs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := buildLogger(cmd)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(runCmd, echoCmd, historyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.echoload.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", logger.FormatConsole, "log format: console or json")
	pf.String("log-file", "", "write logs to this file instead of stderr")
	pf.String("history-path", "", "history database (default is $HOME/.echoload/history.db)")

	for _, name := range []string{"log-level", "log-format", "log-file", "history-path"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".echoload")
		}
	}
	viper.SetEnvPrefix("ECHOLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: reading config:", err)
		}
	}
}

// buildLogger honours --log-file; the TUI always logs to a file so the
// dashboard is not overwritten.
func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level := viper.GetString("log-level")
	format := viper.GetString("log-format")
	path := viper.GetString("log-file")

	if path == "" && cmd.Name() == runCmd.Name() && viper.GetBool("tui") {
		path = "echoload.log"
	}
	if path == "" {
		return logger.New(level, format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.NewWithWriter(f, level, format)
}

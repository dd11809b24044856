package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tablechart-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	// Logging
	flagLogLevel string
	flagLogFile  string
	// HTTP flags (override config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tablechart",
	Short: "tablechart: profile tabular data and turn it into chart-ready series",
	Long: `tablechart loads CSV, TSV, XLSX or JSON tables, classifies their columns, suggests
charts (locally or through an AI runtime such as OpenRouter or Ollama), validates chart
specifications and emits the aggregated, sorted and sampled series a renderer needs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tablechart/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(rootCmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	level := cfg.LogLevel
	if f.Changed("log-level") {
		level = flagLogLevel
	}
	if err := initLogging(rootCmd.ErrOrStderr(), level, flagLogFile); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
	}
	slog.Debug("configuration loaded", "provider", cfg.Provider, "model", cfg.Model, "config", cfgFile)
}

// currentConfig returns the loaded configuration or the defaults.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

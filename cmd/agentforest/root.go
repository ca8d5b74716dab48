package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentforest/config"
)

var (
	configPath   string
	logLevel     string
	metricsAddr  string
	natsURL      string
	embeddedNATS bool
)

var rootCmd = &cobra.Command{
	Use:   "agentforest",
	Short: "Multi-agent orchestration from the command line",
	Long: `agentforest runs LLM agents alone, as a collaborating forest with a shared
task plan, or as an automatically planned team.

Configuration is read from agentforest.yaml (or --config / $AGENTFOREST_CONFIG),
with ${VAR} expansion and AGENTFOREST_* environment overrides.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "", "Mirror forest traffic to this NATS server")
	rootCmd.PersistentFlags().BoolVar(&embeddedNATS, "embedded-nats", false, "Start an in-process NATS server for forest traffic")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(collaborateCmd)
	rootCmd.AddCommand(orchestrateCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	if natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if embeddedNATS {
		cfg.NATS.Embedded = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/studiobridge/internal/config"
	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/client"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studiobridge",
	Short: "Studiobridge drives a 3D Studio window over a local HTTP API",
	Long: `Studiobridge serves a local HTTP API that relays named commands into the
3D Studio window and records the answers students submit from it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./studiobridge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("api-url", "", "Bridge API URL used by client commands (default from server.host and server.port)")
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"host":       "server.host",
	"port":       "server.port",
	"metrics":    "server.metrics",
	"store":      "store.backend",
	"gui":        "gui.command",
}

// loadConfig resolves the configuration with the flags the user set on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")

	overrides := map[string]any{}
	for name, key := range flagKeys {
		if cmd.Flags().Changed(name) {
			overrides[key] = cmd.Flags().Lookup(name).Value.String()
		}
	}

	return config.Load(config.Options{File: file, Overrides: overrides})
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Log.Format), nil
}

// newClient returns a client for the bridge named by --api-url or the configuration.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	apiURL, _ := cmd.Flags().GetString("api-url")
	if apiURL == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		apiURL = cfg.APIURL()
	}
	return client.New(apiURL), nil
}

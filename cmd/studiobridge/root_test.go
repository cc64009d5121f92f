package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log-level", "info", "")
	cmd.Flags().String("api-url", "", "")
	cmd.Flags().IntP("port", "p", 5000, "")
	cmd.Flags().Bool("metrics", true, "")
	cmd.Flags().String("store", "memory", "")
	return cmd
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "5123", "--metrics=false", "--log-level", "debug"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 5123, cfg.Server.Port)
	assert.False(t, cfg.Server.Metrics)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Store.Backend, "unchanged flags leave the configuration alone")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func TestNewClient_URL(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "5999"}))

	c, err := newClient(cmd)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "loud"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	_, err = newLogger(cfg)
	assert.Error(t, err)
}

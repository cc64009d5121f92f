package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/aretw0/studiobridge"
	httpAdapter "github.com/aretw0/studiobridge/pkg/adapters/http"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	Go         string `json:"go"`
	Platform   string `json:"platform"`
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:    strings.TrimSpace(studiobridge.Version),
		APIVersion: httpAdapter.APIVersion(),
		Go:         runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bridge and HTTP API versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersion()
		out := cmd.OutOrStdout()

		if short, _ := cmd.Flags().GetBool("short"); short {
			_, err := fmt.Fprintln(out, info.Version)
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		_, err := fmt.Fprintf(out, "studiobridge %s\n  api:      %s\n  go:       %s\n  platform: %s\n",
			info.Version, info.APIVersion, info.Go, info.Platform)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print only the bridge version")
	versionCmd.Flags().Bool("json", false, "Print the versions as JSON")
}

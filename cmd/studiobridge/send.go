package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [payload-json]",
	Short: "Send a command to the GUI through a running bridge",
	Example: `  studiobridge send getSceneSummary
  studiobridge send loadModel '{"path": "models/heart.glb"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
				return fmt.Errorf("payload must be a JSON object: %w", err)
			}
		}

		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		resp, err := c.ExecuteCommand(cmd.Context(), args[0], payload)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <student-id>",
	Short: "Show the submission status of a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		report, err := c.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if report.Message != "" {
			fmt.Printf("%s: %s (%s)\n", args[0], report.Status, report.Message)
		} else {
			fmt.Printf("%s: %s\n", args[0], report.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

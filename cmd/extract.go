package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractHours int

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Pull changed services into the services checkpoint",
	Long: `Pull service records changed within the recency window from the AEX API,
merge per-service status, and overwrite the services checkpoint file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRunLog()
		if err != nil {
			return err
		}
		defer rl.Close()

		if err := runExtract(cmd.Context(), rl, extractHours); err != nil {
			return err
		}
		fmt.Println("Extract complete")
		return nil
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractHours, "hours", 0, "recency window in hours (default from config)")
	rootCmd.AddCommand(extractCmd)
}

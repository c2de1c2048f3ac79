package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runHours int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full extract, enrich, reconcile pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRunLog()
		if err != nil {
			return err
		}
		defer rl.Close()

		if err := runPipeline(cmd.Context(), rl, runHours); err != nil {
			return err
		}
		fmt.Println("Sync complete")
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runHours, "hours", 0, "recency window in hours (default from config)")
	rootCmd.AddCommand(runCmd)
}

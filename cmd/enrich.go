package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Join services with work orders and customers",
	Long: `Read the services checkpoint, join each service with its full detail,
work orders, and owning customer, and overwrite the enriched checkpoint file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRunLog()
		if err != nil {
			return err
		}
		defer rl.Close()

		if err := runEnrich(cmd.Context(), rl); err != nil {
			return err
		}
		fmt.Println("Enrich complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

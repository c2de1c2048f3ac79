package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Upsert enriched premises into HubSpot",
	Long: `Read the enriched checkpoint and upsert a contact per premise and a
ticket per work order into HubSpot. Search-before-write keeps re-runs from
creating duplicates; run at most one reconcile at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRunLog()
		if err != nil {
			return err
		}
		defer rl.Close()

		if err := runReconcile(cmd.Context(), rl); err != nil {
			return err
		}
		fmt.Println("Reconcile complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

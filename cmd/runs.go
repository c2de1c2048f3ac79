package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/aexsync/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRunLog()
		if err != nil {
			return err
		}
		defer rl.Close()

		entries, err := rl.List(cmd.Context())
		if err != nil {
			return err
		}
		formatRunsList(os.Stdout, entries)
		return nil
	},
}

func formatRunsList(w io.Writer, entries []runlog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	fmt.Fprintf(w, "%-8s  %-9s  %-8s  %-19s  %-19s  %s\n",
		"ID", "STAGE", "STATUS", "STARTED", "COMPLETED", "RECORDS")
	for _, e := range entries {
		completed := "-"
		if e.CompletedAt != nil {
			completed = e.CompletedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%-8s  %-9s  %-8s  %-19s  %-19s  %d",
			truncateID(e.ID), e.Stage, e.Status,
			e.StartedAt.Format("2006-01-02 15:04:05"), completed, e.Records,
		)
		if e.Error != "" {
			fmt.Fprintf(w, "  error=%s", e.Error)
		}
		fmt.Fprintln(w)
	}
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status and queue depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println(output.Title("Sync status"))
		fmt.Printf("  state:   %s\n", output.Status(e.Status()))
		fmt.Printf("  pending: %d\n", e.Queue().Len())
		if last := e.LastSyncedAt(); !last.IsZero() {
			fmt.Printf("  synced:  %s\n", output.Subtle(last.Format("2006-01-02 15:04:05")))
		} else {
			fmt.Printf("  synced:  %s\n", output.Subtle("never in this session"))
		}
		if err := e.LastError(); err != nil {
			fmt.Printf("  error:   %s\n", output.Error("%v", err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

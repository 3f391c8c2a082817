package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/pkg/monitor"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of sync status and the pending queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := e.Load(cmd.Context()); err != nil {
			// Offline is fine here; the view still shows the queue.
			cmd.PrintErrln("warning: initial load failed:", err)
		}
		return monitor.Run(e)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

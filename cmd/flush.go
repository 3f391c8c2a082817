package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/internal/output"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Replay queued operations now",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		before := e.Queue().Len()
		if before == 0 {
			fmt.Println(output.Subtle("queue is empty"))
			return nil
		}
		if err := e.Flush(context.Background()); err != nil {
			return err
		}
		remaining := e.Queue().Len()
		if remaining > 0 {
			fmt.Println(output.Warning("replayed %d, %d still pending", before-remaining, remaining))
			return nil
		}
		fmt.Println(output.Success("replayed %d operation(s)", before))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}

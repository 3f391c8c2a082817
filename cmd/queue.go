package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/internal/output"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List operations waiting for replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		recs := e.Queue().Records()
		if len(recs) == 0 {
			fmt.Println(output.Subtle("queue is empty"))
			return nil
		}
		fmt.Println(output.Title(fmt.Sprintf("%d pending operation(s)", len(recs))))
		for i, rec := range recs {
			line := fmt.Sprintf("  %d. %s %s %s", i+1, rec.Operation.Method, rec.Operation.URL, output.Subtle(rec.ID))
			if n := e.Executor().Attempts(rec.Operation.Method + ":" + rec.Operation.URL); n > 0 {
				line += " " + output.Warning("%d failed attempt(s)", n)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

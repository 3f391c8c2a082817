package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/internal/engine"
	"github.com/marcus/storeconf/internal/models"
	"github.com/marcus/storeconf/internal/output"
)

var saveSection string

var saveCmd = &cobra.Command{
	Use:   "save <json>",
	Short: "Save a configuration fragment through the sync engine",
	Long: `Apply a JSON document fragment as a general save (full-document PUT), or
with --section as a section-scoped save. The mutation goes through the same
optimistic/queued/rollback path as the admin UI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload models.Document
		if err := json.Unmarshal([]byte(args[0]), &payload); err != nil {
			return fmt.Errorf("parse payload: %w", err)
		}

		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := e.Load(context.Background()); err != nil {
			fmt.Println(output.Warning("load before save failed: %v", err))
		}

		var out engine.Outcome
		if saveSection != "" {
			out = e.SaveSection(context.Background(), saveSection, payload)
		} else {
			out = e.SaveGeneral(context.Background(), payload)
		}

		switch {
		case out.Queued():
			fmt.Println(output.Warning("offline: queued as %s", out.OperationID))
		case out.Failed():
			return out.Err
		default:
			fmt.Println(output.Success("saved"))
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveSection, "section", "", "save to a named section instead of top-level config")
	rootCmd.AddCommand(saveCmd)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getLang string

var getCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Print a configuration region as JSON",
	Long: `Load the configuration from the service and print the region at the given
dot-separated path (for example "systemSettings.landing.callUs"). With no
path, the full normalized document is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := e.Load(context.Background()); err != nil {
			return err
		}

		doc := e.Store().Document()
		if getLang != "" {
			doc = e.Store().Localized(getLang)
		}
		var value any = doc
		if len(args) == 1 {
			region, ok := doc.Get(args[0])
			if !ok {
				return fmt.Errorf("no value at %q", args[0])
			}
			value = region
		}

		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getLang, "lang", "", "localize translated values to this language")
	rootCmd.AddCommand(getCmd)
}

// Package cmd implements the storeconf operator CLI: diagnostics and manual
// control over the settings sync engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/storeconf/internal/appconfig"
	"github.com/marcus/storeconf/internal/engine"
	"github.com/marcus/storeconf/internal/netmon"
	"github.com/marcus/storeconf/internal/queue"
	"github.com/marcus/storeconf/internal/remote"
)

var version string

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "storeconf",
	Short: "Storefront settings sync diagnostics and control",
	Long: `storeconf - operator CLI for the storefront settings synchronization engine.

Inspect sync status, list and replay the offline operation queue, and read
or mutate configuration regions through the same engine the admin UI uses.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds an engine from the local CLI config. The caller must
// invoke the returned cleanup function.
func newEngine() (*engine.Engine, func(), error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	q, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open queue: %w", err)
	}

	client := remote.New(cfg.ServerURL, cfg.APIKey)
	e := engine.New(client, q, netmon.New())
	return e, func() { q.Close() }, nil
}

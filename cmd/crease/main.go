// Package main is the crease command: a local cricket technique coach that
// scores batting, bowling and fielding form from pose landmarks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/crease/internal/config"
	"github.com/ayusman/crease/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crease",
	Short: "Cricket technique coach",
	Long:  "Crease scores batting, bowling and fielding technique from camera or video poses and suggests drills for the weakest areas.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		c.ConfigureLogging()
		cfg = c
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore opens the history database, creating the data directory.
func openStore() (*store.Store, error) {
	dir, err := cfg.DataPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

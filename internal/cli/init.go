package cli

import (
	"fmt"
	"os"

	"github.com/trellis-dev/trellis/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize trellis in the current directory",
	Long:  "Creates a .trellis/ directory with default config and database.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check if already initialized.
	if _, err := os.Stat(trellisDirName); err == nil {
		return fmt.Errorf("trellis already initialized in this directory (.trellis/ exists)")
	}

	if err := os.MkdirAll(trellisDirName, 0755); err != nil {
		return fmt.Errorf("create .trellis: %w", err)
	}

	// Write default config.
	cfg := config.DefaultConfig()
	if err := config.Save(trellisPath("config.yaml"), cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create database by opening the store (migration runs automatically).
	s, err := openStore(trellisPath("trellis.db"))
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	s.Close()

	fmt.Println("Initialized trellis in .trellis/")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Create yourself: trellis user create <name>")
	fmt.Println("  2. Set actor in .trellis/config.yaml (or pass --as)")
	fmt.Println("  3. Create a workspace: trellis workspace create \"My team\"")

	return nil
}

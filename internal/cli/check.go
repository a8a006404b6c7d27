package cli

import (
	"fmt"
	"time"

	"github.com/trellis-dev/trellis/internal/integrity"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify dependency graph integrity across all projects",
	Long: "Checks every project's stored edge set for cycles, self-edges,\n" +
		"and edges to missing tasks. Projects are checked in parallel.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := loadConfig()
	checker := integrity.New(s, cfg.EffectiveCheckParallel())

	results, err := checker.Run()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No projects to check.")
		return nil
	}

	bad := 0
	for _, r := range results {
		if r.OK() {
			fmt.Printf("%s✓%s project #%d %s (%s)\n", colorGreen, colorReset, r.ProjectID, r.Name, r.Duration.Round(time.Millisecond))
			continue
		}
		bad++
		if r.Err != nil {
			fmt.Printf("%s✗%s project #%d %s: %v\n", colorRed, colorReset, r.ProjectID, r.Name, r.Err)
			continue
		}
		fmt.Printf("%s✗%s project #%d %s:\n", colorRed, colorReset, r.ProjectID, r.Name)
		for _, issue := range r.Issues {
			fmt.Printf("    %s\n", issue)
		}
	}

	if bad > 0 {
		return fmt.Errorf("%d of %d projects have graph issues", bad, len(results))
	}
	fmt.Printf("%d projects OK.\n", len(results))
	return nil
}

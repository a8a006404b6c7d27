package cli

import (
	"github.com/spf13/cobra"
)

// actorName is the user commands act as, from the persistent --as flag.
// Falls back to the actor in .trellis/config.yaml.
var actorName string

var rootCmd = &cobra.Command{
	Use:   "trellis",
	Short: "Multi-tenant project and task tracking",
	Long: "trellis manages workspaces, projects, and tasks with dependency tracking.\n" +
		"Task dependencies stay acyclic; roles decide who can change what.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorName, "as", "", "User to act as (default from config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(uiCmd)
}

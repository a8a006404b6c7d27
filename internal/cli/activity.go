package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var activityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity [workspace_id]",
	Short: "Show the workspace activity feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivity,
}

func init() {
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 25, "Max entries to show")
}

func runActivity(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	workspaceID, err := parseID(args[0], "workspace")
	if err != nil {
		return err
	}

	entries, err := s.ListActivity(workspaceID, activityLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No activity.")
		return nil
	}

	for _, e := range entries {
		actor := ""
		if e.Actor != "" {
			actor = fmt.Sprintf("[%s] ", e.Actor)
		}
		ref := ""
		if e.TaskID != nil {
			ref = fmt.Sprintf(" (task #%d)", *e.TaskID)
		} else if e.ProjectID != nil {
			ref = fmt.Sprintf(" (project #%d)", *e.ProjectID)
		}
		fmt.Printf("%s %s%s: %s%s\n", e.Timestamp.Format("01-02 15:04"), actor, e.Type, e.Content, ref)
	}
	return nil
}

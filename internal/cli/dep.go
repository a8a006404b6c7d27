package cli

import (
	"fmt"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
	Long: "Manage depends-on edges between tasks of the same project.\n" +
		"Edges that would create a cycle are rejected.",
}

var depAddCmd = &cobra.Command{
	Use:   "add [task_id] [depends_on_id]",
	Short: "Make a task depend on another",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepAdd,
}

var depRmCmd = &cobra.Command{
	Use:   "rm [task_id] [depends_on_id]",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepRm,
}

var depListCmd = &cobra.Command{
	Use:   "list [task_id]",
	Short: "Show a task's dependencies and dependents",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepList,
}

var depReadyCmd = &cobra.Command{
	Use:   "ready [task_id]",
	Short: "Check whether a task's direct dependencies are all done",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepReady,
}

func init() {
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRmCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depReadyCmd)
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	dependsOnID, err := parseID(args[1], "task")
	if err != nil {
		return err
	}

	_, task, err := authorizeForTask(s, access.ActionManageDependencies, taskID)
	if err != nil {
		return err
	}

	if err := graphService(s).AddEdge(task.ProjectID, taskID, dependsOnID); err != nil {
		return err
	}
	fmt.Printf("Task #%d now depends on #%d\n", taskID, dependsOnID)
	return nil
}

func runDepRm(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	dependsOnID, err := parseID(args[1], "task")
	if err != nil {
		return err
	}

	_, task, err := authorizeForTask(s, access.ActionManageDependencies, taskID)
	if err != nil {
		return err
	}

	if err := graphService(s).RemoveEdge(task.ProjectID, taskID, dependsOnID); err != nil {
		return err
	}
	fmt.Printf("Task #%d no longer depends on #%d\n", taskID, dependsOnID)
	return nil
}

func runDepList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}

	g := graphService(s)
	deps, err := g.Dependencies(taskID)
	if err != nil {
		return err
	}
	dependents, err := g.Dependents(taskID)
	if err != nil {
		return err
	}

	if len(deps) == 0 && len(dependents) == 0 {
		fmt.Printf("Task #%d has no dependencies or dependents.\n", taskID)
		return nil
	}
	if len(deps) > 0 {
		fmt.Println("Depends on:")
		for _, t := range deps {
			fmt.Printf("  #%-4d %-12s %s\n", t.ID, t.Status, t.Title)
		}
	}
	if len(dependents) > 0 {
		fmt.Println("Blocks:")
		for _, t := range dependents {
			fmt.Printf("  #%-4d %-12s %s\n", t.ID, t.Status, t.Title)
		}
	}
	return nil
}

func runDepReady(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}

	ready, err := graphService(s).IsReady(taskID)
	if err != nil {
		return err
	}
	if ready {
		fmt.Printf("Task #%d is ready.\n", taskID)
	} else {
		fmt.Printf("Task #%d is blocked by incomplete dependencies.\n", taskID)
	}
	return nil
}

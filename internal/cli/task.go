package cli

import (
	"fmt"
	"strings"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/trellis-dev/trellis/internal/store"
	"github.com/spf13/cobra"
)

var (
	taskPriority    string
	taskDescription string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [project_id] [title]",
	Short: "Create a new task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list [project_id] [status]",
	Short: "List tasks in a project, optionally filtered by status",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details, dependencies, and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskStartCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Move a task to in_progress",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(store.StatusInProgress),
}

var taskReviewCmd = &cobra.Command{
	Use:   "review [id]",
	Short: "Move a task to review",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(store.StatusReview),
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a task as done (all dependencies must be done)",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(store.StatusDone),
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [id] [status]",
	Short: "Set a task's status explicitly",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [id] [user]",
	Short: "Assign a task to a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAssign,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task and its dependency edges",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

func init() {
	taskCreateCmd.Flags().StringVarP(&taskPriority, "priority", "p", "medium", "Priority: high, medium, low")
	taskCreateCmd.Flags().StringVarP(&taskDescription, "desc", "d", "", "Task description")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskReviewCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	if _, err := authorizeForProject(s, access.ActionCreateTask, projectID); err != nil {
		return err
	}

	title := strings.Join(args[1:], " ")
	task, err := s.CreateTask(projectID, title, taskDescription, taskPriority)
	if err != nil {
		return err
	}
	p, _ := s.GetProject(projectID)
	if p != nil {
		s.AddActivity(p.WorkspaceID, &projectID, &task.ID, "", "created", fmt.Sprintf("Task created: %s", title))
	}

	fmt.Printf("Created task #%d: %s [%s]\n", task.ID, task.Title, task.Priority)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	status := ""
	if len(args) > 1 {
		status = args[1]
	}

	tasks, err := s.ListTasks(projectID, status)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	g := graphService(s)
	for _, t := range tasks {
		marker := ""
		if t.Status != store.StatusDone {
			if ready, err := g.IsReady(t.ID); err == nil && !ready {
				marker = " [blocked]"
			}
		}
		fmt.Printf("#%-4d %-12s %-6s %s%s\n", t.ID, t.Status, t.Priority, t.Title, marker)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	task, err := s.GetTask(id)
	if err != nil {
		return err
	}

	fmt.Printf("Task #%d\n", task.ID)
	fmt.Printf("  Title:    %s\n", task.Title)
	fmt.Printf("  Status:   %s\n", task.Status)
	fmt.Printf("  Priority: %s\n", task.Priority)
	if task.Description != "" {
		fmt.Printf("  Desc:     %s\n", task.Description)
	}
	if task.AssigneeID != nil {
		name := fmt.Sprintf("user %d", *task.AssigneeID)
		if u, err := s.GetUser(*task.AssigneeID); err == nil {
			name = u.Name
		}
		fmt.Printf("  Assignee: %s\n", name)
	}
	fmt.Printf("  Project:  #%d\n", task.ProjectID)
	fmt.Printf("  Created:  %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Updated:  %s\n", task.UpdatedAt.Format("2006-01-02 15:04"))

	g := graphService(s)
	deps, err := g.Dependencies(id)
	if err != nil {
		return err
	}
	if len(deps) > 0 {
		fmt.Println("\n  Depends on:")
		for _, d := range deps {
			fmt.Printf("    #%-4d %-12s %s\n", d.ID, d.Status, d.Title)
		}
		ready, _ := g.IsReady(id)
		if ready {
			fmt.Println("  Ready: yes")
		} else {
			fmt.Println("  Ready: no")
		}
	}
	dependents, err := g.Dependents(id)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		fmt.Println("\n  Blocks:")
		for _, d := range dependents {
			fmt.Printf("    #%-4d %-12s %s\n", d.ID, d.Status, d.Title)
		}
	}

	if labels, err := s.TaskLabels(id); err == nil && len(labels) > 0 {
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = l.Name
		}
		fmt.Printf("\n  Labels:   %s\n", strings.Join(names, ", "))
	}

	comments, err := s.ListComments(id)
	if err != nil {
		return err
	}
	if len(comments) > 0 {
		fmt.Println("\n  Comments:")
		for _, c := range comments {
			author := fmt.Sprintf("user %d", c.AuthorID)
			if u, err := s.GetUser(c.AuthorID); err == nil {
				author = u.Name
			}
			fmt.Printf("    %s [%s] %s\n", c.CreatedAt.Format("01-02 15:04"), author, c.Body)
		}
	}

	entries, err := s.TaskActivity(id)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		fmt.Println("\n  History:")
		for _, e := range entries {
			actor := ""
			if e.Actor != "" {
				actor = fmt.Sprintf("[%s] ", e.Actor)
			}
			fmt.Printf("    %s %s%s: %s\n", e.Timestamp.Format("15:04"), actor, e.Type, e.Content)
		}
	}

	return nil
}

// statusRunner builds a RunE that moves a task to the given status.
func statusRunner(status store.TaskStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := mustStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := parseID(args[0], "task")
		if err != nil {
			return err
		}
		if _, _, err := authorizeForTask(s, access.ActionEditTask, id); err != nil {
			return err
		}

		if err := graphService(s).ChangeStatus(id, status); err != nil {
			return err
		}
		fmt.Printf("Task #%d -> %s\n", id, status)
		return nil
	}
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	return statusRunner(store.TaskStatus(args[1]))(cmd, args)
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	if _, _, err := authorizeForTask(s, access.ActionEditTask, id); err != nil {
		return err
	}

	u, err := s.GetUserByName(args[1])
	if err != nil {
		return fmt.Errorf("unknown user %q", args[1])
	}
	if err := s.AssignTask(id, &u.ID); err != nil {
		return err
	}

	fmt.Printf("Assigned task #%d to %s\n", id, u.Name)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	if _, _, err := authorizeForTask(s, access.ActionDeleteTask, id); err != nil {
		return err
	}

	if err := graphService(s).DeleteTask(id); err != nil {
		return err
	}
	fmt.Printf("Deleted task #%d\n", id)
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/spf13/cobra"
)

var labelColor string

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment on tasks",
}

var commentAddCmd = &cobra.Command{
	Use:   "add [task_id] [body]",
	Short: "Add a comment to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCommentAdd,
}

var commentListCmd = &cobra.Command{
	Use:   "list [task_id]",
	Short: "List a task's comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentList,
}

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage project labels",
}

var labelCreateCmd = &cobra.Command{
	Use:   "create [project_id] [name]",
	Short: "Create a label in a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelCreate,
}

var labelAddCmd = &cobra.Command{
	Use:   "add [task_id] [label_id]",
	Short: "Attach a label to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelAdd,
}

var labelListCmd = &cobra.Command{
	Use:   "list [project_id]",
	Short: "List a project's labels",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelList,
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage task attachments",
}

var attachAddCmd = &cobra.Command{
	Use:   "add [task_id] [file_name]",
	Short: "Record an attachment on a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttachAdd,
}

var attachListCmd = &cobra.Command{
	Use:   "list [task_id]",
	Short: "List a task's attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachList,
}

func init() {
	labelCreateCmd.Flags().StringVarP(&labelColor, "color", "c", "", "Label color")

	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentListCmd)
	labelCmd.AddCommand(labelCreateCmd)
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelListCmd)
	attachCmd.AddCommand(attachAddCmd)
	attachCmd.AddCommand(attachListCmd)
}

func runCommentAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	u, _, err := authorizeForTask(s, access.ActionComment, taskID)
	if err != nil {
		return err
	}

	body := strings.Join(args[1:], " ")
	c, err := s.AddComment(taskID, u.ID, body)
	if err != nil {
		return err
	}
	fmt.Printf("Comment #%d added to task #%d\n", c.ID, taskID)
	return nil
}

func runCommentList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	comments, err := s.ListComments(taskID)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return nil
	}
	for _, c := range comments {
		author := fmt.Sprintf("user %d", c.AuthorID)
		if u, err := s.GetUser(c.AuthorID); err == nil {
			author = u.Name
		}
		fmt.Printf("%s [%s] %s\n", c.CreatedAt.Format("2006-01-02 15:04"), author, c.Body)
	}
	return nil
}

func runLabelCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	if _, err := authorizeForProject(s, access.ActionManageLabels, projectID); err != nil {
		return err
	}

	l, err := s.CreateLabel(projectID, args[1], labelColor)
	if err != nil {
		return err
	}
	fmt.Printf("Created label #%d: %s\n", l.ID, l.Name)
	return nil
}

func runLabelAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	labelID, err := parseID(args[1], "label")
	if err != nil {
		return err
	}
	if _, _, err := authorizeForTask(s, access.ActionManageLabels, taskID); err != nil {
		return err
	}

	if err := s.AttachLabel(taskID, labelID); err != nil {
		return err
	}
	fmt.Printf("Label #%d attached to task #%d\n", labelID, taskID)
	return nil
}

func runLabelList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	labels, err := s.ListLabels(projectID)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		fmt.Println("No labels.")
		return nil
	}
	for _, l := range labels {
		color := ""
		if l.Color != "" {
			color = fmt.Sprintf(" (%s)", l.Color)
		}
		fmt.Printf("#%-4d %s%s\n", l.ID, l.Name, color)
	}
	return nil
}

func runAttachAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	if _, _, err := authorizeForTask(s, access.ActionEditTask, taskID); err != nil {
		return err
	}

	a, err := s.AddAttachment(taskID, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Attachment #%d recorded (key %s)\n", a.ID, a.StorageKey)
	return nil
}

func runAttachList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	attachments, err := s.ListAttachments(taskID)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		fmt.Println("No attachments.")
		return nil
	}
	for _, a := range attachments {
		fmt.Printf("#%-4d %s  %s\n", a.ID, a.FileName, a.StorageKey)
	}
	return nil
}

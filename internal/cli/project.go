package cli

import (
	"fmt"
	"strings"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/spf13/cobra"
)

var projectDescription string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [workspace_id] [name]",
	Short: "Create a project in a workspace",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list [workspace_id]",
	Short: "List projects in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectList,
}

func init() {
	projectCreateCmd.Flags().StringVarP(&projectDescription, "desc", "d", "", "Project description")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	workspaceID, err := parseID(args[0], "workspace")
	if err != nil {
		return err
	}

	u, err := actor(s)
	if err != nil {
		return err
	}
	if err := access.New(s).Authorize(u.ID, access.ActionEditProject, workspaceID, nil); err != nil {
		return err
	}

	name := strings.Join(args[1:], " ")
	p, err := s.CreateProject(workspaceID, name, projectDescription)
	if err != nil {
		return err
	}
	s.AddActivity(workspaceID, &p.ID, nil, u.Name, "created", fmt.Sprintf("Project created: %s", name))

	fmt.Printf("Created project #%d: %s\n", p.ID, p.Name)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	workspaceID, err := parseID(args[0], "workspace")
	if err != nil {
		return err
	}

	projects, err := s.ListProjects(workspaceID)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}
	for _, p := range projects {
		desc := ""
		if p.Description != "" {
			desc = "  " + p.Description
		}
		fmt.Printf("#%-4d %s%s\n", p.ID, p.Name, desc)
	}
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/trellis-dev/trellis/internal/store"
	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a workspace (you become its owner)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWorkspaceCreate,
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	RunE:  runWorkspaceList,
}

var workspaceMembersCmd = &cobra.Command{
	Use:   "members [workspace_id]",
	Short: "List workspace members and roles",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceMembers,
}

func init() {
	workspaceCmd.AddCommand(workspaceCreateCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceMembersCmd)
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := actor(s)
	if err != nil {
		return err
	}

	name := strings.Join(args, " ")
	w, err := s.CreateWorkspace(name)
	if err != nil {
		return err
	}

	// The creator is the founding owner. This direct write is the only
	// membership mutation that bypasses the resolver: there is nobody
	// to authorize against in an empty workspace.
	if err := s.SetWorkspaceMember(w.ID, u.ID, store.RoleOwner); err != nil {
		return err
	}
	s.AddActivity(w.ID, nil, nil, u.Name, "created", fmt.Sprintf("Workspace created: %s", name))

	fmt.Printf("Created workspace #%d: %s (owner: %s)\n", w.ID, w.Name, u.Name)
	return nil
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	workspaces, err := s.ListWorkspaces()
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		fmt.Println("No workspaces found.")
		return nil
	}
	for _, w := range workspaces {
		fmt.Printf("#%-4d %s\n", w.ID, w.Name)
	}
	return nil
}

func runWorkspaceMembers(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID(args[0], "workspace")
	if err != nil {
		return err
	}

	members, err := s.ListWorkspaceMembers(id)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No members found.")
		return nil
	}
	for _, m := range members {
		name := fmt.Sprintf("user %d", m.UserID)
		if u, err := s.GetUser(m.UserID); err == nil {
			name = u.Name
		}
		fmt.Printf("%-20s %s\n", name, m.Role)
	}
	return nil
}

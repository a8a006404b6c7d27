package cli

import (
	"fmt"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/trellis-dev/trellis/internal/store"
	"github.com/spf13/cobra"
)

var (
	memberWorkspace int64
	memberProject   int64
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Grant and revoke roles",
	Long: "Grant and revoke workspace- or project-scoped roles.\n" +
		"A project grant can only raise a user's privilege above their workspace role, never lower it.",
}

var memberGrantCmd = &cobra.Command{
	Use:   "grant [user] [role]",
	Short: "Grant a role (--workspace or --project gives the scope)",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberGrant,
}

var memberRevokeCmd = &cobra.Command{
	Use:   "revoke [user]",
	Short: "Revoke a grant (--workspace or --project gives the scope)",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberRevoke,
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grants in a scope (--workspace or --project)",
	Args:  cobra.NoArgs,
	RunE:  runMemberList,
}

func init() {
	for _, c := range []*cobra.Command{memberGrantCmd, memberRevokeCmd, memberListCmd} {
		c.Flags().Int64VarP(&memberWorkspace, "workspace", "w", 0, "Workspace ID")
		c.Flags().Int64VarP(&memberProject, "project", "p", 0, "Project ID")
	}

	memberCmd.AddCommand(memberGrantCmd)
	memberCmd.AddCommand(memberRevokeCmd)
	memberCmd.AddCommand(memberListCmd)
}

// memberScope validates that exactly one of --workspace / --project
// was given.
func memberScope() error {
	if (memberWorkspace == 0) == (memberProject == 0) {
		return fmt.Errorf("give exactly one of --workspace or --project")
	}
	return nil
}

func runMemberGrant(cmd *cobra.Command, args []string) error {
	if err := memberScope(); err != nil {
		return err
	}

	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	act, err := actor(s)
	if err != nil {
		return err
	}
	target, err := s.GetUserByName(args[0])
	if err != nil {
		return fmt.Errorf("unknown user %q", args[0])
	}
	role := store.Role(args[1])
	if !store.ValidRole(role) {
		return fmt.Errorf("invalid role %q (owner, admin, member, viewer)", args[1])
	}

	resolver := access.New(s)
	if memberWorkspace != 0 {
		if err := resolver.AssignWorkspaceRole(act.ID, target.ID, memberWorkspace, role); err != nil {
			return err
		}
		fmt.Printf("Granted %s to %s in workspace #%d\n", role, target.Name, memberWorkspace)
		return nil
	}

	if err := resolver.AssignProjectRole(act.ID, target.ID, memberProject, role); err != nil {
		return err
	}
	fmt.Printf("Granted %s to %s in project #%d\n", role, target.Name, memberProject)
	return nil
}

func runMemberRevoke(cmd *cobra.Command, args []string) error {
	if err := memberScope(); err != nil {
		return err
	}

	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	act, err := actor(s)
	if err != nil {
		return err
	}
	target, err := s.GetUserByName(args[0])
	if err != nil {
		return fmt.Errorf("unknown user %q", args[0])
	}

	resolver := access.New(s)
	if memberWorkspace != 0 {
		if err := resolver.RemoveWorkspaceRole(act.ID, target.ID, memberWorkspace); err != nil {
			return err
		}
		fmt.Printf("Revoked %s from workspace #%d\n", target.Name, memberWorkspace)
		return nil
	}

	if err := resolver.RemoveProjectRole(act.ID, target.ID, memberProject); err != nil {
		return err
	}
	fmt.Printf("Revoked %s from project #%d\n", target.Name, memberProject)
	return nil
}

func runMemberList(cmd *cobra.Command, args []string) error {
	if err := memberScope(); err != nil {
		return err
	}

	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	userName := func(id int64) string {
		if u, err := s.GetUser(id); err == nil {
			return u.Name
		}
		return fmt.Sprintf("user %d", id)
	}

	if memberWorkspace != 0 {
		members, err := s.ListWorkspaceMembers(memberWorkspace)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			fmt.Println("No members.")
			return nil
		}
		for _, m := range members {
			fmt.Printf("%-8s %s\n", m.Role, userName(m.UserID))
		}
		return nil
	}

	members, err := s.ListProjectMembers(memberProject)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No project grants.")
		return nil
	}
	for _, m := range members {
		fmt.Printf("%-8s %s\n", m.Role, userName(m.UserID))
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userEmail string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE:  runUserList,
}

func init() {
	userCreateCmd.Flags().StringVarP(&userEmail, "email", "e", "", "Email address")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := s.CreateUser(args[0], userEmail)
	if err != nil {
		return err
	}

	fmt.Printf("Created user #%d: %s\n", u.ID, u.Name)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}
	for _, u := range users {
		email := ""
		if u.Email != "" {
			email = fmt.Sprintf(" <%s>", u.Email)
		}
		fmt.Printf("#%-4d %s%s\n", u.ID, u.Name, email)
	}
	return nil
}

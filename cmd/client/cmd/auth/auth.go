package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vaultkeeper/cmd/client/cmd/cli"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the server.

The password also derives the key that encrypts your records, so it
cannot be recovered by anyone, the server included.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		username, err := cli.ReadLine("Username: ")
		if err != nil {
			return err
		}
		password, err := cli.ReadNewSecret("Password: ")
		if err != nil {
			return err
		}

		id, err := app.Register(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		cli.Success.Printf("Registered %s (id %d)\n", username, id)
		fmt.Println("Log in with: vaultkeeper login")
		return nil
	},
}

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and unlock the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		username, err := cli.ReadLine("Username: ")
		if err != nil {
			return err
		}
		password, err := cli.ReadSecret("Password: ")
		if err != nil {
			return err
		}

		err = cli.Spin("Logging in and deriving the vault key...", func() error {
			_, err := app.Login(cmd.Context(), username, password)
			return err
		})
		if err != nil {
			return err
		}

		cli.Success.Fprintf(os.Stderr, "Logged in as %s, vault unlocked\n", username)
		cli.PrintSessionExport(app)
		return nil
	},
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Lock the vault and end the server session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		if err := app.Logout(cmd.Context()); err != nil {
			return err
		}

		cli.Success.Println("Logged out")
		return nil
	},
}

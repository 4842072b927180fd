package vault

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vaultkeeper/cmd/client/cmd/cli"
	"vaultkeeper/internal/app/client/crypto"
)

var UnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Derive the vault key for a new window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		passphrase, err := cli.ReadSecret("Password: ")
		if err != nil {
			return err
		}

		err = cli.Spin("Deriving the vault key...", func() error {
			return app.Unlock(cmd.Context(), passphrase)
		})
		if err != nil {
			return err
		}

		cli.Success.Fprintln(os.Stderr, "Vault unlocked")
		cli.PrintSessionExport(app)
		return nil
	},
}

var LockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Forget the vault key now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		if err := app.Lock(); err != nil {
			return err
		}

		cli.Success.Println("Vault locked")
		return nil
	},
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login and vault state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		st := app.Status()
		if !st.LoggedIn {
			cli.Warning.Println("Not logged in")
			return nil
		}

		role := "user"
		if st.IsAdmin {
			role = "admin"
		}
		fmt.Printf("Logged in as %s (%s)\n", st.Username, role)

		switch v := st.Vault.(type) {
		case crypto.Unlocked:
			left := time.Until(v.ExpiresAt).Round(time.Second)
			cli.Success.Printf("Vault unlocked, locks in %s\n", left)
		default:
			cli.Warning.Println("Vault locked")
		}
		return nil
	},
}

package reset

import (
	"github.com/spf13/cobra"

	"vaultkeeper/cmd/client/cmd/cli"
)

var ResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a forgotten account password",
	Long: `Reset a forgotten account password.

Records stay encrypted under the key of the old password. A reset gives
back access to the account, not to records stored before it.`,
}

var RequestCmd = &cobra.Command{
	Use:   "request <username>",
	Short: "Ask for a reset token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		if err := app.RequestReset(cmd.Context(), args[0]); err != nil {
			return err
		}

		cli.Success.Println("If the account exists, a reset link has been issued")
		return nil
	},
}

var RedeemCmd = &cobra.Command{
	Use:   "redeem",
	Short: "Set a new password with a reset token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		token, err := cli.ReadSecret("Reset token: ")
		if err != nil {
			return err
		}
		password, err := cli.ReadNewSecret("New password: ")
		if err != nil {
			return err
		}

		if err := app.RedeemReset(cmd.Context(), token, password); err != nil {
			return err
		}

		cli.Success.Println("Password changed, log in again")
		return nil
	},
}

package cmd

import (
	"vaultkeeper/cmd/client/cmd/admin"
	"vaultkeeper/cmd/client/cmd/auth"
	"vaultkeeper/cmd/client/cmd/record"
	"vaultkeeper/cmd/client/cmd/reset"
	"vaultkeeper/cmd/client/cmd/vault"
)

func init() {
	rootCmd.AddCommand(auth.RegisterCmd, auth.LoginCmd, auth.LogoutCmd)
	rootCmd.AddCommand(vault.UnlockCmd, vault.LockCmd, vault.StatusCmd)
	rootCmd.AddCommand(record.AddCmd, record.ListCmd, record.GetCmd, record.EditCmd, record.DeleteCmd)

	rootCmd.AddCommand(reset.ResetCmd)
	reset.ResetCmd.AddCommand(reset.RequestCmd, reset.RedeemCmd)

	rootCmd.AddCommand(admin.AdminCmd)
	admin.AdminCmd.AddCommand(admin.SetupCmd, admin.ExportCmd, admin.ImportCmd)
}

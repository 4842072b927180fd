package admin

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vaultkeeper/cmd/client/cmd/cli"
)

var (
	output   string
	truncate bool
)

var AdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer the server",
}

var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the administrator account",
	Long:  `Create the administrator account. This works once per server.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		username, err := cli.ReadLine("Admin username: ")
		if err != nil {
			return err
		}
		password, err := cli.ReadNewSecret("Admin password: ")
		if err != nil {
			return err
		}

		id, err := app.SetupAdmin(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		cli.Success.Printf("Administrator %s created (id %d)\n", username, id)
		return nil
	},
}

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every user and record",
	Long: `Export every user and record as JSON. Records stay encrypted and
passwords stay hashed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("open %s: %w", output, err)
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			w = f
		}

		stats, err := app.Export(cmd.Context(), w)
		if err != nil {
			return err
		}

		cli.Success.Fprintf(os.Stderr, "Exported %d users and %d records\n", stats.Users, stats.Records)
		return nil
	},
}

var ImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an export document",
	Long: `Import an export document. With --truncate every existing user,
session and record is removed first and ids are kept as exported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		if truncate {
			cli.Warning.Fprintln(os.Stderr, "Existing data will be removed")
		}

		stats, err := app.Import(cmd.Context(), r, truncate)
		if err != nil {
			return err
		}

		cli.Success.Printf("Imported %d users and %d records\n", stats.Users, stats.Records)
		return nil
	},
}

func init() {
	ExportCmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	ImportCmd.Flags().BoolVar(&truncate, "truncate", false, "remove all existing data first")
}

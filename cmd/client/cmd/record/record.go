package record

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"vaultkeeper/cmd/client/cmd/cli"
	"vaultkeeper/internal/domain/record"
)

var (
	email        string
	url          string
	notes        string
	name         string
	offline      bool
	showPassword bool
	newPassword  bool
)

var AddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a credential",
	Long: `Add a credential. The password is prompted for; leave it empty to
store none.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		password, err := cli.ReadSecret("Record password (empty for none): ")
		if err != nil {
			return err
		}

		created, err := app.Add(cmd.Context(), record.Credential{
			Name:     args[0],
			Email:    email,
			Password: password,
			URL:      url,
			Notes:    notes,
		})
		if err != nil {
			return err
		}

		cli.Success.Printf("Added record %d\n", created.ID)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		records, err := app.List(cmd.Context(), offline)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			cli.Muted.Println("No records")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tURL\tMODIFIED")
		for _, d := range records {
			c := d.Credential
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				c.ID, c.Name, c.Email, c.URL, c.ModifiedAt.Local().Format(time.DateTime))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		warnFailed(records...)
		return nil
	},
}

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		d, err := app.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		c := d.Credential
		password := c.Password
		if !showPassword && password != "" && password != record.DecryptFailedMarker {
			password = strings.Repeat("*", 8)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%d\n", c.ID)
		fmt.Fprintf(w, "Name\t%s\n", c.Name)
		fmt.Fprintf(w, "Email\t%s\n", c.Email)
		fmt.Fprintf(w, "Password\t%s\n", password)
		fmt.Fprintf(w, "URL\t%s\n", c.URL)
		fmt.Fprintf(w, "Notes\t%s\n", c.Notes)
		fmt.Fprintf(w, "Modified\t%s\n", c.ModifiedAt.Local().Format(time.DateTime))
		if err := w.Flush(); err != nil {
			return err
		}

		warnFailed(d)
		return nil
	},
}

var EditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a credential",
	Long: `Change the fields given as flags. An empty value clears a field,
except the name. Use --password to be prompted for a new password.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		changes := map[string]string{}
		flags := cmd.Flags()
		for flag, value := range map[string]string{"name": name, "email": email, "url": url, "notes": notes} {
			if flags.Changed(flag) {
				changes[flag] = value
			}
		}
		if newPassword {
			p, err := cli.ReadSecret("New record password (empty to clear): ")
			if err != nil {
				return err
			}
			changes["password"] = p
		}

		updated, err := app.Edit(cmd.Context(), id, changes)
		if err != nil {
			return err
		}

		cli.Success.Printf("Updated record %d\n", updated.ID)
		return nil
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := app.Delete(cmd.Context(), id); err != nil {
			return err
		}

		cli.Success.Printf("Deleted record %d\n", id)
		return nil
	},
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

func warnFailed(records ...record.Decoded) {
	for _, d := range records {
		if len(d.Failed) > 0 {
			cli.Warning.Fprintf(os.Stderr, "record %d: %s could not be decrypted\n",
				d.Credential.ID, strings.Join(d.Failed, ", "))
		}
	}
}

func init() {
	AddCmd.Flags().StringVar(&email, "email", "", "email or login")
	AddCmd.Flags().StringVar(&url, "url", "", "site address")
	AddCmd.Flags().StringVar(&notes, "notes", "", "free text")

	ListCmd.Flags().BoolVar(&offline, "offline", false, "read the local cache instead of the server")

	GetCmd.Flags().BoolVar(&showPassword, "show-password", false, "print the password in clear")

	EditCmd.Flags().StringVar(&name, "name", "", "new name")
	EditCmd.Flags().StringVar(&email, "email", "", "new email")
	EditCmd.Flags().StringVar(&url, "url", "", "new site address")
	EditCmd.Flags().StringVar(&notes, "notes", "", "new notes")
	EditCmd.Flags().BoolVar(&newPassword, "password", false, "prompt for a new password")
}

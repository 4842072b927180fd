package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"vaultkeeper/cmd/client/cmd/cli"
	"vaultkeeper/internal/app/client"
	"vaultkeeper/internal/app/client/config"
	"vaultkeeper/internal/app/client/crypto"
	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/utils/logger"
)

var (
	debug     bool
	serverURL string
	app       *client.App
)

var rootCmd = &cobra.Command{
	Use:   "vaultkeeper",
	Short: "vaultkeeper keeps credentials encrypted end to end",
	Long: `vaultkeeper stores credentials on a server that cannot read them.

Every field is encrypted on this machine with a key derived from your
password. The key is held for a short window after login or unlock and
is never sent anywhere.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.Failure.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		stop()
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log := logger.Discard()
	if debug {
		log = logger.New(cfg.Env)
	}
	slog.SetDefault(log)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("start client: %w", err)
	}

	cmd.SetContext(cli.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

// describe turns an error into one line for the terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, crypto.ErrVaultLocked):
		return "vault is locked, run `vaultkeeper unlock`"
	case errors.Is(err, client.ErrNotLoggedIn):
		return "not logged in, run `vaultkeeper login`"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, apperr.ErrAuthentication):
		return "authentication failed"
	case errors.Is(err, apperr.ErrForbidden):
		return "administrator rights required"
	}
	return err.Error()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log to stdout")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server address, overrides SERVER_ADDRESS")
}

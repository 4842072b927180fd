// Package cli holds what every client command shares: the App in the
// command context, prompts and terminal output.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vaultkeeper/internal/app/client"
	"vaultkeeper/internal/app/client/crypto"
)

type ctxKey string

const AppKey ctxKey = "app"

var (
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Failure = color.New(color.FgRed)
	Muted   = color.New(color.FgHiBlack)
)

var ErrNoApp = errors.New("client is not initialized")

var stdin = bufio.NewReader(os.Stdin)

func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, AppKey, app)
}

func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(AppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// ReadSecret prompts without echo on a terminal and reads a plain line
// otherwise, so secrets can be piped in.
func ReadSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	return readLine()
}

// ReadNewSecret asks twice and fails when the answers differ.
func ReadNewSecret(prompt string) (string, error) {
	first, err := ReadSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := ReadSecret("Repeat: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("entries do not match")
	}
	return first, nil
}

func ReadLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	return readLine()
}

func readLine() (string, error) {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Spin shows a spinner on stderr while fn runs.
func Spin(message string, fn func() error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	defer s.Stop()

	return fn()
}

// PrintSessionExport tells the user how to keep the unlocked key for
// later commands in the same shell.
func PrintSessionExport(app *client.App) {
	if app.SessionSecret() == "" {
		Warning.Fprintln(os.Stderr, "XDG_RUNTIME_DIR is not set, the key is kept for this command only")
		return
	}
	if !app.NewShellSession() {
		return
	}
	Muted.Fprintln(os.Stderr, "# run this to keep the vault unlocked in this shell:")
	fmt.Printf("export %s=%s\n", crypto.SessionEnv, app.SessionSecret())
}

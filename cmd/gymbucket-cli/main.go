package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gymbucket/gymbucket/internal/client"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs once the session is open.
type app struct {
	serverURL string
	store     *client.SessionStore
	session   *client.Session
}

func (a *app) open() error {
	if a.session != nil {
		return nil
	}
	stateDir, tempDir, err := client.DefaultDirs()
	if err != nil {
		return err
	}
	a.store, err = client.OpenSessionStore(stateDir, tempDir)
	if err != nil {
		return err
	}
	a.session = client.NewSession(client.NewAPI(a.serverURL), a.store)
	return nil
}

// loggedIn opens the store and restores the saved login.
func (a *app) loggedIn(ctx context.Context) error {
	if err := a.open(); err != nil {
		return err
	}
	_, err := a.session.Restore(ctx)
	return err
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gymbucket-cli",
		Short:         "GymBucket trainer calendar from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}
	defaultServer := os.Getenv("GYMBUCKET_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&a.serverURL, "server", defaultServer, "GymBucket server URL (env GYMBUCKET_SERVER)")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newForgotPasswordCmd(a))
	root.AddCommand(newCalendarCmd(a))
	root.AddCommand(newTrainingsCmd(a))
	root.AddCommand(newPlansCmd(a))
	root.AddCommand(newExercisesCmd(a))
	root.AddCommand(newMCPCmd(a))
	return root
}

// readPassword takes the password from envKey, or prompts without echo
// when stdin is a terminal, or reads one line from stdin.
func readPassword(w io.Writer, prompt, envKey string) (string, error) {
	if v := os.Getenv(envKey); v != "" {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(w, prompt)
		pw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ledgerdesk/ledgerdesk/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the ledgerdesk server",
	Long: `Sign in and persist the session cookie for later commands.

The password is taken from --password, the LEDGERCTL_PASSWORD
environment variable, or an interactive prompt, in that order.

Examples:
  ledgerctl login -u admin
  LEDGERCTL_PASSWORD=secret ledgerctl login -u admin`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the server-side session and drop the local cookie",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	RunE:  runWhoami,
}

var (
	loginUsername string
	loginPassword string
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "P", "", "Password (prefer LEDGERCTL_PASSWORD or the prompt)")
	loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		password = os.Getenv("LEDGERCTL_PASSWORD")
	}
	if password == "" {
		prompted, err := promptPassword(loginUsername)
		if err != nil {
			return err
		}
		password = prompted
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	user, err := a.client.Auth().Login(ctx, loginUsername, password)
	if err != nil {
		if errors.Is(err, session.ErrBadCredentials) {
			return err
		}
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Printf("Logged in as %s\n", user.Username)
	return nil
}

// promptPassword reads the password without echoing it when stdin is a
// terminal; piped input falls back to a plain line read.
func promptPassword(username string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	return readPasswordLine(os.Stdin)
}

// readPasswordLine reads one line of piped input, tolerating a missing
// trailing newline.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := a.client.Auth().Logout(ctx); err != nil {
		return err
	}
	if err := a.jar.Clear(); err != nil {
		return err
	}
	cmd.Println("Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	user, err := a.client.Auth().Current(ctx)
	if err != nil {
		return err
	}

	tw := NewTabWriter(os.Stdout)
	defer tw.Flush()
	fmt.Fprintf(tw, "USERNAME\t%s\n", user.Username)
	if user.Email != "" {
		fmt.Fprintf(tw, "EMAIL\t%s\n", user.Email)
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" {
		fmt.Fprintf(tw, "NAME\t%s\n", name)
	}
	fmt.Fprintf(tw, "STAFF\t%s\n", activeMark(user.IsStaff))
	fmt.Fprintf(tw, "SUPERUSER\t%s\n", activeMark(user.IsSuperuser))
	return nil
}

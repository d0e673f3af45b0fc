package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gagsync/pkg/auth"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage 9GAG login credentials",
	Long: `Manage the account used when the saved browser cookies have expired.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file under the user config directory
  - USERNAME / PASSWORD or GAGSYNC_USERNAME / GAGSYNC_PASSWORD (read only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a login",
	Long: `Store a 9GAG username and password. The password is read without echo.
Storing a username that already exists replaces its password.`,
	Example: `  gagsync auth login
  gagsync auth login me@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored login",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored logins with masked passwords",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to initialize credential manager")
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("9GAG username or email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return errs.Wrap(errs.ErrorTypeAuth, err, "failed to read username")
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return errs.New(errs.ErrorTypeAuth, "username is required")
	}

	fmt.Print("Password: ")
	password, err := readPassword(reader)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to read password")
	}
	if password == "" {
		return errs.New(errs.ErrorTypeAuth, "password is required")
	}

	account := &auth.Account{
		Username:     username,
		Password:     password,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to store credentials")
	}

	console := ui.NewConsole(nil)
	console.Success("account saved: " + username)
	if accounts, _ := manager.List(); len(accounts) > 1 {
		console.Info("Use it with", "gagsync sync --account "+username)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to initialize credential manager")
	}

	if err := manager.Delete(args[0]); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to remove account")
	}
	ui.NewConsole(nil).Success("account removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to initialize credential manager")
	}

	accounts, err := manager.List()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to list accounts")
	}

	console := ui.NewConsole(nil)
	if len(accounts) == 0 {
		console.Info("No stored accounts", "use 'gagsync auth login' to add one")
		return nil
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s\n", i+1, sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readPassword reads without echo on a terminal and falls back to a plain line
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

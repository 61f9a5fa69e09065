package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"riddle/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Reddit app secrets",
	Long: `Manage Reddit application secrets outside of config.yaml.

Secrets are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (RIDDLE_CLIENT_SECRET, read only)

When credentials.client_secret is empty, riddle looks the secret up by
credentials.client_id in these stores.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [client-id]",
	Short: "Store an app secret securely",
	Example: `  # Interactive login
  riddle auth login

  # Login for a known client id
  riddle auth login p-jcoLKBynTLew`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <client-id>",
	Short: "Remove a stored app secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored app secrets, masked",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager: %v", err)
		return errAborted
	}

	reader := bufio.NewReader(os.Stdin)

	var clientID string
	if len(args) > 0 {
		clientID = strings.TrimSpace(args[0])
	} else {
		auth.ShowAppSetupGuide(console.Writer())
		fmt.Fprint(console.Writer(), "\nClient id: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			console.Error("Failed to read client id: %v", err)
			return errAborted
		}
		clientID = strings.TrimSpace(input)
	}
	if clientID == "" {
		console.Error("Client id is required")
		return errAborted
	}

	if existing, err := manager.Lookup(clientID); err == nil {
		fmt.Fprintf(console.Writer(), "A secret for %s is already stored in the %s. Replace it? (y/N): ", clientID, existing.Source)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(console.Writer(), "Client secret (hidden): ")
	secret, err := readPassword(reader)
	if err != nil {
		console.Error("Failed to read secret: %v", err)
		return errAborted
	}

	if err := manager.Save(clientID, secret); err != nil {
		console.Error("%v", err)
		return errAborted
	}

	console.Success("Secret stored for %s", clientID)
	console.Highlight("Leave credentials.client_secret empty in %s to use it.", configFile)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager: %v", err)
		return errAborted
	}

	if err := manager.Forget(args[0]); err != nil {
		console.Error("%v", err)
		return errAborted
	}
	console.Success("Secret removed for %s", args[0])
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager: %v", err)
		return errAborted
	}

	secrets := manager.Secrets()
	if len(secrets) == 0 {
		console.Info("No stored secrets. The system keychain cannot be listed; use 'riddle auth login' again to check it.")
		return nil
	}

	for _, s := range secrets {
		console.Field(s.ClientID, fmt.Sprintf("%s (%s)", auth.MaskString(s.Value), s.Source))
	}
	return nil
}

// readPassword reads a secret from stdin without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

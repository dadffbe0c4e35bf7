package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"igdownloader/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the RapidAPI credential",
	Long: `Manage the stored RapidAPI credential.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (RAPIDAPI_KEY, read-only)

Never share your API key or config files!`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Store the RapidAPI key securely",
	Long: `Store the RapidAPI key in the system keychain or encrypted file.

The key is read from stdin so it never appears in shell history. The
optional name argument allows keeping several keys; 'default' is used
when omitted.`,
	Example: `  # Store the default key
  igdownloader auth set

  # Store a named key
  igdownloader auth set staging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the stored credential",
	Long:  `Show the stored credential with the key partially masked.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthShow,
}

// authDeleteCmd represents the auth delete command
var authDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove the stored credential",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authDeleteCmd)
}

func credentialName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "default"
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	fmt.Print("RapidAPI key: ")
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}

	name := credentialName(args)
	if err := manager.Store(&auth.Credential{Name: name, APIKey: key}); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	fmt.Printf("Credential %q stored.\n", name)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	cred, err := manager.Retrieve(name)
	if err != nil {
		return fmt.Errorf("no credential stored under %q", name)
	}

	fmt.Printf("Name:     %s\n", cred.Name)
	fmt.Printf("API key:  %s\n", maskKey(cred.APIKey))
	if !cred.LastModified.IsZero() {
		fmt.Printf("Modified: %s\n", cred.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("no credential stored under %q", name)
	}

	fmt.Printf("Credential %q removed.\n", name)
	return nil
}

// maskKey hides all but the edges of an API key
func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"riddle/pkg/auth"
	"riddle/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
	Long: `Manage the riddle settings file.

Settings are merged from:
  - Command line flags (highest priority)
  - Environment variables (RIDDLE_*) and a .env file
  - The settings file (config.yaml unless --config is given)
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a settings file with the default values",
	RunE:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings with the secret masked",
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings file for syntax errors and invalid values",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

// exampleConfig returns the defaults with placeholder credentials
func exampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Credentials = &config.CredentialsConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	return cfg
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)

	if _, err := os.Stat(configFile); err == nil {
		console.Error("Settings file already exists: %s", configFile)
		return errAborted
	}

	if err := exampleConfig().Save(configFile); err != nil {
		console.Error("%v", err)
		return errAborted
	}

	console.Success("Settings file created: %s", configFile)
	console.Highlight("\nNext steps:")
	console.Highlight("1. Register a script app at https://www.reddit.com/prefs/apps")
	console.Highlight("2. Put its client id and secret under 'credentials'")
	console.Highlight("3. Run 'riddle config validate'")
	return nil
}

// maskedConfig returns a copy of cfg that is safe to print
func maskedConfig(cfg *config.Config) *config.Config {
	display := *cfg
	if cfg.Credentials != nil {
		display.Credentials = &config.CredentialsConfig{
			ClientID:     cfg.Credentials.ClientID,
			ClientSecret: auth.MaskString(cfg.Credentials.ClientSecret),
		}
	}
	return &display
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)

	cfg, err := loadConfig(console)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		console.Error("failed to format settings: %v", err)
		return errAborted
	}

	console.Highlight("Current settings (%s)", configFile)
	fmt.Fprintln(console.Writer())
	fmt.Fprint(console.Writer(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	console := newConsole(nil)
	console.Field("Validating", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		console.Error("Settings are invalid: %v", err)
		return errAborted
	}

	if err := resolveSecret(cfg, storedSecret); err != nil && !errors.Is(err, auth.ErrSecretNotFound) {
		console.Warning("secret store unavailable: %v", err)
	}
	if err := cfg.CheckCredentials(); err != nil {
		console.Warning("%v", err)
	}

	console.Success("Settings are valid")
	console.Field("Image extensions", cfg.ImageExtensions)
	console.Field("Minimum size", fmt.Sprintf("%d KB", cfg.MinSize))
	console.Field("User agent", cfg.UserAgent)
	console.Field("Cache directory", cfg.Download.CacheDir)
	console.Field("Log level", cfg.Logging.Level)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"riddle/pkg/auth"
	"riddle/pkg/config"
	"riddle/pkg/logger"
	"riddle/pkg/reddit"
	"riddle/pkg/scraper"
	"riddle/pkg/ui"
)

var (
	// Version information
	version   = "3.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	noProgress bool
	quiet      bool
	verbose    bool

	// Download flags
	count   int
	output  string
	zipMode bool
	nsfw    bool
)

// errAborted signals that the run stopped before downloading anything.
// The reason has already been printed.
var errAborted = errors.New("aborted")

// rootCmd downloads the hot images of the given subreddits
var rootCmd = &cobra.Command{
	Use:   "riddle [flags] subreddit [subreddit ...]",
	Short: "Download images from the hot listing of subreddits",
	Long: `riddle downloads the images linked from the hot listing of one or more
subreddits. Files that already exist in the destination are skipped.

Settings are read from config.yaml in the working directory:

  credentials:
    client_id: <app id>
    client_secret: <app secret>
  image-extensions: [jpg, jpeg, png]
  min-size: 5   # kilobytes, smaller downloads are discarded (0 keeps all)

The client secret may be omitted when it was stored with 'riddle auth login'.`,
	Example: `  # Download everything the hot listing of r/EarthPorn links to
  riddle EarthPorn

  # Fetch at most 20 posts from two subreddits into one folder
  riddle -c 20 -o wallpapers EarthPorn SpacePorn

  # Collect into pics.zip, extending it on later runs
  riddle --zip pics`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	RunE:          runDownload,
}

// Execute runs the command tree and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errAborted) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics at debug level")

	rootCmd.Flags().IntVarP(&count, "count", "c", 0, "number of posts to fetch per subreddit (0 fetches all)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "destination directory or archive name (default: the subreddit name)")
	rootCmd.Flags().BoolVarP(&zipMode, "zip", "z", false, "store the images in <output>.zip")
	rootCmd.Flags().BoolVarP(&nsfw, "nsfw", "n", false, "include posts marked as over 18")

	rootCmd.SetVersionTemplate(`riddle {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// newConsole builds the status printer from the global output flags
func newConsole(cfg *config.Config) *ui.Console {
	useColor := !noColor
	if cfg != nil && !cfg.UI.Color {
		useColor = false
	}
	console := ui.NewConsole(os.Stdout, useColor)
	console.SetQuiet(quiet)
	return console
}

// commandLineFlags collects the global flags that override file settings
func commandLineFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if verbose {
		flags["log-level"] = "debug"
	}
	if noColor {
		flags["color"] = false
	}
	if noProgress {
		flags["progress"] = false
	}
	return flags
}

// loadConfig loads the settings file. A syntax error is reported and a
// Config without credentials is returned so the credential check aborts.
func loadConfig(console *ui.Console) (*config.Config, error) {
	cfg, err := config.Load(configFile, commandLineFlags())

	var parseErr *config.ParseError
	switch {
	case err == nil:
		return cfg, nil
	case errors.As(err, &parseErr):
		console.Error("%v", parseErr)
		return cfg, nil
	case errors.Is(err, config.ErrConfigNotFound):
		console.Error("%v", err)
		console.Info("Run 'riddle config init' to create one")
		return nil, errAborted
	default:
		console.Error("%v", err)
		return nil, errAborted
	}
}

// resolveSecret fills an empty client secret from the secret store
func resolveSecret(cfg *config.Config, lookup func(clientID string) (string, error)) error {
	if cfg.Credentials == nil || cfg.Credentials.ClientID == "" || cfg.Credentials.ClientSecret != "" {
		return nil
	}

	secret, err := lookup(cfg.Credentials.ClientID)
	if err != nil {
		return err
	}
	cfg.Credentials.ClientSecret = secret
	return nil
}

// storedSecret looks up a client secret through the credential manager
func storedSecret(clientID string) (string, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return "", err
	}
	return manager.Secret(clientID)
}

func runDownload(cmd *cobra.Command, args []string) error {
	opts := config.RunOptions{
		Count:  count,
		Output: output,
		Zip:    zipMode,
		NSFW:   nsfw,
		Feeds:  args,
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	console := newConsole(nil)
	cfg, err := loadConfig(console)
	if err != nil {
		return err
	}
	console = newConsole(cfg)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		console.Error("%v", err)
		return errAborted
	}
	log := logger.GetLogger().WithField("version", version)

	if err := resolveSecret(cfg, storedSecret); err != nil {
		log.DebugWithFields("no stored secret", map[string]interface{}{"error": err.Error()})
	}
	if err := cfg.CheckCredentials(); err != nil {
		console.Error("%v", err)
		if errors.Is(err, config.ErrMissingSecret) {
			console.Info("Store one with 'riddle auth login' or set credentials.client_secret")
		}
		return errAborted
	}

	ctx := cmd.Context()
	client := reddit.NewClient(ctx, cfg, log)
	s := scraper.New(cfg, client, console, log)

	if _, err := s.Run(ctx, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			console.Warning("Interrupted")
			return errAborted
		}
		return err
	}
	return nil
}

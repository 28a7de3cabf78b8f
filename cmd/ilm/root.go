package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user cancels an operation (e.g. prompt declined).
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.3.0"

	// Global flags
	configDir  string
	dataDir    string
	verbose    bool
	noHooks    bool
	jsonOutput bool
	noColor    bool
)

// envConfig holds settings read from the environment. Flags take precedence.
type envConfig struct {
	ConfigDir   string `env:"ILM_CONFIG_DIR"`
	DataDir     string `env:"ILM_DATA_DIR"`
	LogFormat   string `env:"ILM_LOG_FORMAT" envDefault:"text"`
	Username    string `env:"ILM_USERNAME"`
	AccessToken string `env:"ILM_ACCESS_TOKEN"`
}

// loadEnv parses the ILM_* environment variables
func loadEnv() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ilm",
	Short: "Instance Launch Manager - run independently configured game instances",
	Long: `ilm manages game instance profiles, each living in its own directory with
its own version, java runtime, memory, resolution and hooks, and launches them.

Use subcommands for operations. Run 'ilm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envCfg, err := loadEnv()
		if err != nil {
			return err
		}
		initLogger(os.Stderr, envCfg.LogFormat, verbose)
		return nil
	},
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: $ILM_CONFIG_DIR or ~/.config/ilm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: $ILM_DATA_DIR or ~/.local/share/ilm)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noHooks, "no-hooks", false, "disable pre-launch and post-exit hooks")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (profile list/show, history, version list, account list)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
// NO_COLOR: if set (any value), color is disabled per https://no-color.org
func colorEnabled() bool {
	if noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return true
}

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

func colorize(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

// colorGreen returns s in green when color is enabled, otherwise s.
func colorGreen(s string) string { return colorize(greenStyle, s) }

// colorRed returns s in red when color is enabled, otherwise s.
func colorRed(s string) string { return colorize(redStyle, s) }

// colorYellow returns s in yellow when color is enabled, otherwise s.
func colorYellow(s string) string { return colorize(yellowStyle, s) }

func bold(s string) string { return colorize(boldStyle, s) }

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// A game or hook that exits non-zero makes ilm exit with the same code.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(os.Stdout, os.Stderr, err))
	}
}

// reportError prints err and returns the process exit code for it
func reportError(stdout, stderr io.Writer, err error) int {
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return 2
	}
	if jsonOutput {
		fmt.Fprintf(stdout, `{"error":%q}`+"\n", err.Error())
	} else {
		fmt.Fprintf(stderr, "%s %v\n", colorRed("Error:"), err)
	}
	if code, ok := domain.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

// initService creates and initializes the core service.
// gameOutput, when non-nil, receives a copy of the game's console output.
func initService(ctx context.Context, gameOutput io.Writer) (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}
	cfg.GameOutput = gameOutput

	// Ensure directories exist
	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	svc, err := core.NewService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if verbose {
		for _, s := range svc.Profiles().Skipped() {
			fmt.Fprintf(os.Stderr, "%s skipped profile %s: %v\n", colorYellow("Warning:"), s.Path, s.Err)
		}
	}
	return svc, nil
}

// getServiceConfig returns the service configuration with defaults.
// Flags win over ILM_CONFIG_DIR / ILM_DATA_DIR, which win over the XDG-style defaults.
func getServiceConfig() (core.ServiceConfig, error) {
	envCfg, err := loadEnv()
	if err != nil {
		return core.ServiceConfig{}, err
	}

	cfg := core.ServiceConfig{
		ConfigDir: firstNonEmpty(configDir, envCfg.ConfigDir),
		DataDir:   firstNonEmpty(dataDir, envCfg.DataDir),
		Logger:    slog.Default(),
	}

	// Apply defaults
	if cfg.ConfigDir == "" || cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("home directory: %w", err)
		}
		if cfg.ConfigDir == "" {
			cfg.ConfigDir = filepath.Join(homeDir, ".config", "ilm")
		}
		if cfg.DataDir == "" {
			cfg.DataDir = filepath.Join(homeDir, ".local", "share", "ilm")
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/woud420/kickstart-sub000/internal/branding"
	"github.com/woud420/kickstart-sub000/internal/config"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagTemplatesDir string
	flagVerbose      bool

	settings *config.Settings
	logger   = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` generates services, frontends, libraries, CLI tools and infrastructure
monorepos from layered templates, either one component at a time or from a
manifest describing a whole system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.New().Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagTemplatesDir != "" {
			s.TemplatesDir = flagTemplatesDir
		}
		if flagVerbose {
			s.LogLevel = "debug"
		}
		settings = s
		logger = newLogger(s.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTemplatesDir, "templates-dir", "",
		"Directory with templates that take priority over the builtin catalog")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log every pipeline step")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// newLogger returns a text logger on stderr at the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadRegistry builds the template registry from the configured sources.
func loadRegistry() (*registry.Registry, error) {
	opts := append(settings.RegistryOptions(), registry.WithLogger(logger))
	reg, err := registry.Load(registry.DefaultSources(settings.TemplatesDir), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return reg, nil
}

// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed; editing it renames the
// binary, its home directory and its environment variables.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	HomeDir       string `yaml:"home_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	GoModule      string `yaml:"go_module"`
	ManifestFile  string `yaml:"manifest_file"`
	ProjectConfig string `yaml:"project_config"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:       "kickstart",
			DisplayName:   "Kickstart",
			Description:   "Generate project components from layered templates",
			HomeDir:       ".kickstart",
			EnvPrefix:     "KICKSTART",
			GoModule:      "github.com/woud420/kickstart-sub000",
			ManifestFile:  "kickstart.yaml",
			ProjectConfig: ".kickstart.yaml",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "kickstart").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Kickstart").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".kickstart").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "KICKSTART").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// ManifestFile returns the manifest name "generate" reads when no path is
// given (e.g., "kickstart.yaml").
func ManifestFile() string { load(); return defaults.ManifestFile }

// ProjectConfig returns the per-project config file name, read from the
// working directory (e.g., ".kickstart.yaml").
func ProjectConfig() string { load(); return defaults.ProjectConfig }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("log_level") → "KICKSTART_LOG_LEVEL".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}

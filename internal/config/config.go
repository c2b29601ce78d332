package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/woud420/kickstart-sub000/internal/branding"
	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys that may be read and written with Get and Set.
const (
	KeyServiceLanguage  = "default_language.service"
	KeyFrontendLanguage = "default_language.frontend"
	KeyLibraryLanguage  = "default_language.library"
	KeyCLILanguage      = "default_language.cli"
	KeyTemplatesDir     = "templates_dir"
	KeyParallelism      = "parallelism"
	KeyForce            = "force"
	KeyLogLevel         = "log_level"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeyServiceLanguage,
	KeyFrontendLanguage,
	KeyLibraryLanguage,
	KeyCLILanguage,
	KeyTemplatesDir,
	KeyParallelism,
	KeyForce,
	KeyLogLevel,
}

// Settings is the validated configuration.
type Settings struct {
	DefaultLanguage Languages `mapstructure:"default_language"`
	TemplatesDir    string    `mapstructure:"templates_dir"`
	Parallelism     int       `mapstructure:"parallelism" validate:"min=1,max=64"`
	Force           bool      `mapstructure:"force"`
	LogLevel        string    `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// Languages holds the default language per component kind. Empty values
// fall back to the registry's built-in defaults.
type Languages struct {
	Service  string `mapstructure:"service"`
	Frontend string `mapstructure:"frontend"`
	Library  string `mapstructure:"library"`
	CLI      string `mapstructure:"cli"`
}

// Config loads and stores settings.
type Config struct {
	userFile    string
	projectFile string
}

// Option configures a Config.
type Option func(*Config)

// WithUserFile overrides the user config file (~/.kickstart/config.yaml).
func WithUserFile(path string) Option {
	return func(c *Config) { c.userFile = path }
}

// WithProjectFile overrides the project config file (./.kickstart.yaml).
// An empty path disables it.
func WithProjectFile(path string) Option {
	return func(c *Config) { c.projectFile = path }
}

// New returns a Config using the default file locations.
func New(opts ...Option) *Config {
	c := &Config{userFile: FilePath(), projectFile: branding.ProjectConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the path to the kickstart config directory (~/.kickstart/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the user config file (~/.kickstart/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServiceLanguage, "")
	v.SetDefault(KeyFrontendLanguage, "")
	v.SetDefault(KeyLibraryLanguage, "")
	v.SetDefault(KeyCLILanguage, "")
	v.SetDefault(KeyTemplatesDir, "")
	v.SetDefault(KeyParallelism, 4)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyLogLevel, "info")
}

// viper returns an instance layered from defaults, the user file, the
// project file and the environment.
func (c *Config) viper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range []string{c.userFile, c.projectFile} {
		if path == "" {
			continue
		}
		v.SetConfigFile(path)
		// Ignore the file if it doesn't exist yet.
		if err := v.MergeInConfig(); err != nil && !missing(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return v, nil
}

func missing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Load returns the validated settings.
func (c *Config) Load() (*Settings, error) {
	v, err := c.viper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings' value ranges.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.ActualTag(), fe.Value()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Get returns the effective value of key as a string.
func (c *Config) Get(key string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", unknownKey(key)
	}
	v, err := c.viper()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes a key to the user config file after checking that the
// resulting settings are valid.
func (c *Config) Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return unknownKey(key)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(c.userFile)
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !missing(err) {
		return fmt.Errorf("reading config file %s: %w", c.userFile, err)
	}
	v.Set(key, value)
	if _, err := decode(v); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.userFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(c.userFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
}

// RegistryOptions turns the default languages into registry options.
func (s *Settings) RegistryOptions() []registry.Option {
	return []registry.Option{
		registry.WithDefaultLanguage(component.KindService, s.DefaultLanguage.Service),
		registry.WithDefaultLanguage(component.KindFrontend, s.DefaultLanguage.Frontend),
		registry.WithDefaultLanguage(component.KindLibrary, s.DefaultLanguage.Library),
		registry.WithDefaultLanguage(component.KindCLI, s.DefaultLanguage.CLI),
	}
}

// Package config resolves where and what to stamp from defaults, an optional
// YAML file, SET_UI_VERSION_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/uiversion/internal/stamp"
)

// DefaultConfigFile is looked up in the working directory when no explicit
// config path is given. Its absence is not an error.
const DefaultConfigFile = ".set-ui-version.yaml"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SET_UI_VERSION"

// Configuration keys.
const (
	KeyFile        = "file"
	KeyPlaceholder = "placeholder"
)

// ErrInvalidConfig is returned when the resolved configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the resolved stamping configuration.
type Config struct {
	// File is the target file, relative to the working directory.
	File string `mapstructure:"file" yaml:"file" validate:"required"`

	// Placeholder is the literal token replaced by the version.
	Placeholder string `mapstructure:"placeholder" yaml:"placeholder" validate:"required"`
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// Loader layers configuration sources using Viper.
type Loader struct {
	v        *viper.Viper
	path     string
	explicit bool
	read     bool
}

// NewLoader creates a loader. An empty path selects DefaultConfigFile in the
// working directory, which may be absent; an explicit path must exist.
func NewLoader(path string) *Loader {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFile, stamp.DefaultFile)
	v.SetDefault(KeyPlaceholder, stamp.DefaultPlaceholder)

	return &Loader{
		v:        v,
		path:     path,
		explicit: explicit,
	}
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// BindFlags binds the file and placeholder flags so that they take precedence
// over every other source when set.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{KeyFile, KeyPlaceholder} {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the config file if present, then decodes and validates the
// layered result.
func (l *Loader) Load() (*Config, error) {
	if err := l.readFile(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.ErrorUnused = true
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// UsedFile reports the config file that was read, or "" if none.
func (l *Loader) UsedFile() string {
	if !l.read {
		return ""
	}
	return l.path
}

func (l *Loader) readFile() error {
	if !l.explicit {
		if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", l.path, err)
	}
	l.read = true
	return nil
}

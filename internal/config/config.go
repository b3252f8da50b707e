// Package config resolves silvernote's runtime settings.
//
// Settings are layered: built-in defaults, then an optional JSON file, then
// command-line flags the user set explicitly. Later layers win.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/achapweske/silvernote/internal/logging"
)

// Config holds runtime settings for the silvernote CLI.
type Config struct {
	// StoreURI selects the repository, e.g. "sqlite://notes.db".
	StoreURI string `json:"store"`

	// User is recorded on newly created repositories.
	User string `json:"user"`

	// SecretEnv names the environment variable holding the repository
	// secret. The secret itself is never read from files or flags.
	SecretEnv string `json:"secret_env"`

	// PageSize is the default number of search results per page.
	PageSize int `json:"page_size"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"log_level"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		StoreURI:  "sqlite://silvernote.db",
		User:      os.Getenv("USER"),
		SecretEnv: "SILVERNOTE_SECRET",
		PageSize:  20,
		LogLevel:  "info",
	}
}

// Load applies defaults, the JSON file at path (skipped when path is
// empty) and the flags of fs that were changed on the command line.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if fs != nil {
		if err := cfg.mergeFlags(fs); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile overlays the non-zero fields of a JSON document.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var file Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if file.StoreURI != "" {
		c.StoreURI = file.StoreURI
	}
	if file.User != "" {
		c.User = file.User
	}
	if file.SecretEnv != "" {
		c.SecretEnv = file.SecretEnv
	}
	if file.PageSize != 0 {
		c.PageSize = file.PageSize
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

// mergeFlags overlays flags that were set explicitly. Flags fs does not
// define are ignored.
func (c *Config) mergeFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("store") {
		c.StoreURI, err = fs.GetString("store")
		if err != nil {
			return err
		}
	}
	if fs.Changed("user") {
		c.User, err = fs.GetString("user")
		if err != nil {
			return err
		}
	}
	if fs.Changed("secret-env") {
		c.SecretEnv, err = fs.GetString("secret-env")
		if err != nil {
			return err
		}
	}
	if fs.Changed("page-size") {
		c.PageSize, err = fs.GetInt("page-size")
		if err != nil {
			return err
		}
	}
	if fs.Changed("log-level") {
		c.LogLevel, err = fs.GetString("log-level")
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.StoreURI == "" {
		errs = append(errs, errors.New("store URI is empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Secret returns the repository secret from the environment.
func (c Config) Secret() string {
	if c.SecretEnv == "" {
		return ""
	}
	return os.Getenv(c.SecretEnv)
}

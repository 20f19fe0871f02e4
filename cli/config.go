package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const defaultAPIURL = "http://localhost:8080"

// Config is the CLI configuration file.
type Config struct {
	APIURL  string `yaml:"api_url"`
	Token   string `yaml:"token,omitempty"`
	NoColor bool   `yaml:"no_color,omitempty"`

	path string
}

// DefaultConfigPath returns ~/.config/taskwise/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "taskwise", "config.yaml"), nil
}

// LoadConfig reads path, falling back to defaults when the file does not
// exist. TASKWISE_API_URL and TASKWISE_TOKEN override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{APIURL: defaultAPIURL, path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if v := os.Getenv("TASKWISE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TASKWISE_TOKEN"); v != "" {
		cfg.Token = v
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return cfg, nil
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(c.path, data, 0o600)
}

// Path is the file the config was loaded from.
func (c *Config) Path() string { return c.path }

package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "plantree"
	configFileName = "profiles.yaml"
)

var configDirFunc = configDir

// Settings are the parse defaults read from the "settings" block.
type Settings struct {
	MaxInputBytes int64  `yaml:"max_input_bytes,omitempty"`
	Format        string `yaml:"format,omitempty"`
	PlanName      string `yaml:"plan_name,omitempty"`
}

type Config struct {
	Default  string    `yaml:"default,omitempty"`
	Settings Settings  `yaml:"settings,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

const configTemplate = `# plantree configuration
#
# settings apply to every command unless overridden by a flag.
settings:
  # largest report accepted from a file, stdin or paste, in bytes
  max_input_bytes: 16777216
  # output format for parse and compare: text or json
  format: text
  # name given to parsed plans; empty uses "plan created on <date>"
  plan_name: ""

# default: local

# connection profiles for the explain command
profiles: []
#  - name: local
#    conn_str: postgres://postgres@localhost:5432/postgres
`

// LoadSettings returns the configured settings with defaults filled in.
// A missing config file is not an error.
func LoadSettings() (Settings, error) {
	s := Settings{Format: "text"}

	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}

	if cfg.Settings.MaxInputBytes > 0 {
		s.MaxInputBytes = cfg.Settings.MaxInputBytes
	}
	if cfg.Settings.Format != "" {
		s.Format = cfg.Settings.Format
	}
	s.PlanName = cfg.Settings.PlanName
	return s, nil
}

// WriteTemplate writes a commented starter config and returns its path. An
// existing file is only replaced when force is set.
func WriteTemplate(force bool) (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := ensureConfigDir(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing config %s: %w", path, err)
	}
	return path, nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	return configPath()
}

func load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &cfg, nil
}

// loadOrEmpty is load for writers: a missing file yields an empty config.
func loadOrEmpty() (*Config, error) {
	cfg, err := load()
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg, nil
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func configPath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func ensureConfigDir() error {
	dir, err := configDirFunc()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func save(cfg *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}

	return nil
}

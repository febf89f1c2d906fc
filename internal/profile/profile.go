// Package profile manages the plantree config file: named database
// connections for the explain command and parse settings.
package profile

import (
	"fmt"
	"os"
	"slices"
)

type Profile struct {
	Name    string `yaml:"name"`
	ConnStr string `yaml:"conn_str"`
}

func (c *Config) find(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool {
		return p.Name == name
	})
}

func Resolve(name string) (string, error) {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no profiles configured (run: plantree profile add <name> <conn_str>)")
		}
		return "", err
	}

	if i := cfg.find(name); i >= 0 {
		return cfg.Profiles[i].ConnStr, nil
	}
	return "", fmt.Errorf("profile %q not found", name)
}

// List returns the configured profiles and the default profile name.
func List() ([]Profile, string, error) {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return cfg.Profiles, cfg.Default, nil
}

func Add(name, connStr string) error {
	cfg, err := loadOrEmpty()
	if err != nil {
		return err
	}

	if i := cfg.find(name); i >= 0 {
		cfg.Profiles[i].ConnStr = connStr
		return save(cfg)
	}

	cfg.Profiles = append(cfg.Profiles, Profile{
		Name:    name,
		ConnStr: connStr,
	})
	return save(cfg)
}

func Remove(name string) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	i := cfg.find(name)
	if i < 0 {
		return fmt.Errorf("profile %q not found", name)
	}

	cfg.Profiles = slices.Delete(cfg.Profiles, i, i+1)
	if cfg.Default == name {
		cfg.Default = ""
	}
	return save(cfg)
}

// ResolveConnStr picks the connection string for explain: an explicit --db
// wins, then --profile, then the configured default. An empty result means
// nothing is configured.
func ResolveConnStr(db, profileName string) (string, error) {
	if db != "" {
		return db, nil
	}
	if profileName != "" {
		return Resolve(profileName)
	}

	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if cfg.Default != "" {
		return Resolve(cfg.Default)
	}

	return "", nil
}

func SetDefault(name string) error {
	cfg, err := loadOrEmpty()
	if err != nil {
		return err
	}

	if cfg.find(name) < 0 {
		return fmt.Errorf("profile %q not found", name)
	}

	cfg.Default = name
	return save(cfg)
}

func ClearDefault() error {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cfg.Default = ""
	return save(cfg)
}

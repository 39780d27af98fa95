package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedConfig represents the structure of the seed file.
// Initial accounts and catalog data that are easier to manage in YAML than env vars.
type SeedConfig struct {
	Users   []SeedUser  `yaml:"users"`
	Catalog []SeedBrand `yaml:"catalog"`
}

// SeedUser defines an account created at startup when its e-mail is unknown.
type SeedUser struct {
	Email    string   `yaml:"email"`
	Name     string   `yaml:"name"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// SeedBrand defines an approved brand and its model names.
type SeedBrand struct {
	Name   string   `yaml:"name"`
	Models []string `yaml:"models"`
}

// LoadSeedConfig loads the seed file at path.
// Returns nil without error if path is empty or the file doesn't exist.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Seed file is optional
			return nil, nil
		}
		return nil, err
	}

	return ParseSeedConfig(data)
}

// ParseSeedConfig decodes and checks seed file contents.
func ParseSeedConfig(data []byte) (*SeedConfig, error) {
	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, u := range cfg.Users {
		if strings.TrimSpace(u.Email) == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: email and password are required", i+1)
		}
		if strings.TrimSpace(u.Name) == "" {
			cfg.Users[i].Name = u.Email
		}
	}
	for i, b := range cfg.Catalog {
		if strings.TrimSpace(b.Name) == "" {
			return nil, fmt.Errorf("seed brand %d: name is required", i+1)
		}
	}

	return &cfg, nil
}

// ImportText renders the catalog in the tab-separated "brand<TAB>model" line
// format accepted by the catalog import.
func (c *SeedConfig) ImportText() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, b := range c.Catalog {
		if len(b.Models) == 0 {
			fmt.Fprintf(&sb, "%s\n", b.Name)
		}
		for _, m := range b.Models {
			fmt.Fprintf(&sb, "%s\t%s\n", b.Name, m)
		}
	}
	return sb.String()
}

// GetBrandByName finds a seeded brand by name, ignoring case.
func (c *SeedConfig) GetBrandByName(name string) *SeedBrand {
	if c == nil {
		return nil
	}
	for i := range c.Catalog {
		if strings.EqualFold(c.Catalog[i].Name, name) {
			return &c.Catalog[i]
		}
	}
	return nil
}

// Package config loads the lockbox runtime configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/systmms/lockbox/internal/keystore"
	"github.com/systmms/lockbox/internal/logging"
)

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the lockbox.yaml structure.
type Definition struct {
	// DataDir overrides the metadata file directory.
	DataDir string `yaml:"dataDir"`

	// Backend selects the secure value store: keychain (default),
	// aws, or memory.
	Backend string `yaml:"backend"`

	// Keychain configures the platform credential store backend.
	Keychain KeychainConfig `yaml:"keychain"`

	// AWS configures the AWS Secrets Manager backend.
	AWS keystore.AWSOptions `yaml:"aws"`
}

// KeychainConfig holds keychain-specific configuration.
type KeychainConfig struct {
	// Service is the keychain service name values are stored under.
	Service string `yaml:"service"`
}

// Load reads and parses the lockbox.yaml file. A missing file yields an
// empty definition with defaults applied downstream.
func (c *Config) Load() error {
	c.Definition = &Definition{}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", c.Path, err)
	}

	if err := yaml.Unmarshal(data, c.Definition); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", c.Path, err)
	}

	return nil
}

// StoreOptions builds the secure value store options from the
// definition.
func (c *Config) StoreOptions() keystore.Options {
	def := c.Definition
	if def == nil {
		def = &Definition{}
	}
	return keystore.Options{
		Backend: def.Backend,
		Service: def.Keychain.Service,
		AWS:     def.AWS,
	}
}

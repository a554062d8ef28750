// Package nodeconfig defines the external configuration shape the core
// depends on without owning: the chain node and content-store
// endpoints, the local data directory, and the account/wallet and
// index-counter collaborators the config layer is expected to provide.
package nodeconfig

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the on-disk shape of the client's configuration.
type ConfigFile struct {
	NodeURL         string `yaml:"node_url"`
	ContentStoreURL string `yaml:"content_store_url"`
	DataDir         string `yaml:"data_dir"`
}

// Default returns a ConfigFile with the conventional local defaults.
func Default() *ConfigFile {
	return &ConfigFile{
		NodeURL:         "ws://127.0.0.1:9944",
		ContentStoreURL: "http://127.0.0.1:5001",
		DataDir:         "~/.nolik",
	}
}

// Load reads and parses a ConfigFile from path.
func Load(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, starting from Default
// and validating the result.
func Parse(data []byte) (*ConfigFile, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field is set to something structurally
// sane. It never reaches out to the network.
func (c *ConfigFile) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("node_url is required")
	}
	if !strings.HasPrefix(c.NodeURL, "ws://") && !strings.HasPrefix(c.NodeURL, "wss://") {
		return fmt.Errorf("node_url must be a ws:// or wss:// endpoint, got %q", c.NodeURL)
	}
	if c.ContentStoreURL == "" {
		return fmt.Errorf("content_store_url is required")
	}
	if !strings.HasPrefix(c.ContentStoreURL, "http://") && !strings.HasPrefix(c.ContentStoreURL, "https://") {
		return fmt.Errorf("content_store_url must be an http:// or https:// endpoint, got %q", c.ContentStoreURL)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// AccountStore resolves an account alias to its X25519 identity
// keypair. Persistence of accounts and wallets is explicitly out of
// scope for this client; the core only ever depends on this interface.
type AccountStore interface {
	PublicKey(alias string) (public [32]byte, ok bool)
	SecretKey(alias string) (secret [32]byte, ok bool)
}

// WalletStore resolves a wallet alias to its SR25519 signing keypair.
type WalletStore interface {
	Seed(alias string) (seed [32]byte, ok bool)
}

// Hook is the boundary between the core and the config layer for the
// one piece of core-driven mutation the config layer owns: the
// monotonically increasing per-account index counter each appended
// IndexMessage consumes (spec.md §4.9).
type Hook interface {
	// NextIndex increments and returns the new index counter value for
	// accountPublic (base58-encoded).
	NextIndex(accountPublic string) (uint32, error)
}

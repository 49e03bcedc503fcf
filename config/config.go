package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the node configuration.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	// NetworkAccount is the hub's settlement identity; incoming transfers
	// addressed to it start a conversion.
	NetworkAccount string `toml:"NetworkAccount"`
	// AdminAccount holds registry administrator authority.
	AdminAccount string `toml:"AdminAccount"`
	// MaxHops bounds the converter chain length of a single trade.
	MaxHops int `toml:"MaxHops"`
	// OwnerMutationsEnabled restores the permissive policy under which a
	// converter's owner may update it after creation. The default keeps
	// post-creation mutation administrator-only.
	OwnerMutationsEnabled bool   `toml:"OwnerMutationsEnabled"`
	Environment           string `toml:"Environment"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if strings.TrimSpace(cfg.NetworkAccount) == "" {
		return nil, fmt.Errorf("config: NetworkAccount is required")
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8546"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = 8
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{NetworkAccount: "network"}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

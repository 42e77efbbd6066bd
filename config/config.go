package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"yieldvault/crypto"
	"yieldvault/native/vault"
)

type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	ServiceName   string `toml:"ServiceName"`
	Environment   string `toml:"Environment"`
	LogFile       string `toml:"LogFile,omitempty"`

	VaultID   string `toml:"VaultID"`
	VaultName string `toml:"VaultName"`
	Asset     string `toml:"Asset"`

	OwnerAddress string `toml:"OwnerAddress"`

	MinGainBps uint64 `toml:"MinGainBps"`
	MaxCostBps uint64 `toml:"MaxCostBps"`

	SessionWindowSeconds uint64 `toml:"SessionWindowSeconds"`
	SessionTxBudget      uint64 `toml:"SessionTxBudget"`
}

const (
	defaultListenAddress = "0.0.0.0:8545"
	defaultDataDir       = "./data"
	defaultServiceName   = "yieldvault"
	defaultVaultID       = "main"
	defaultVaultName     = "Yield Vault"
	defaultAsset         = "USDY"
)

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
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = defaultListenAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = defaultServiceName
	}
	if strings.TrimSpace(c.VaultID) == "" {
		c.VaultID = defaultVaultID
	}
	if strings.TrimSpace(c.VaultName) == "" {
		c.VaultName = defaultVaultName
	}
	if strings.TrimSpace(c.Asset) == "" {
		c.Asset = defaultAsset
	}
	if c.MinGainBps == 0 {
		c.MinGainBps = vault.DefaultMinGainBps
	}
	if c.MaxCostBps == 0 {
		c.MaxCostBps = vault.DefaultMaxCostBps
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.MaxCostBps >= c.MinGainBps {
		return fmt.Errorf("config: MaxCostBps (%d) must be below MinGainBps (%d)", c.MaxCostBps, c.MinGainBps)
	}
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := crypto.DecodeAddress(c.OwnerAddress); err != nil {
			return fmt.Errorf("config: invalid OwnerAddress: %w", err)
		}
	}
	return nil
}

// Owner decodes the configured owner address, if any.
func (c *Config) Owner() (crypto.Address, bool, error) {
	trimmed := strings.TrimSpace(c.OwnerAddress)
	if trimmed == "" {
		return crypto.Address{}, false, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

// Thresholds returns the gate limits the config carries.
func (c *Config) Thresholds() vault.Thresholds {
	return vault.Thresholds{MinGainBps: c.MinGainBps, MaxCostBps: c.MaxCostBps}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

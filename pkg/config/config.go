// Package config provides a reusable loader for node-process configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"datachain/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// ChainConfig is the node-process configuration a DataChain is instantiated
// from. It is ambient glue: core.NewDataChain takes the plain group_size
// int directly and never imports this package, so loading config is a
// concern of the process wiring it up, not of the chain algorithm itself.
type ChainConfig struct {
	// GroupSize is the close-group size a chain's rolling-quorum predicate
	// is evaluated against.
	GroupSize int `mapstructure:"group_size" json:"group_size"`

	// PendingCacheCapacity bounds the number of identifiers a PendingCache
	// accumulates votes for concurrently. 0 means unbounded.
	PendingCacheCapacity int `mapstructure:"pending_cache_capacity" json:"pending_cache_capacity"`

	// NetworkDifficulty seeds a freshly joined node's sense of how far
	// apart close-group members typically sit, persisted across restarts
	// so early lookups don't start from a cold heuristic.
	NetworkDifficulty string `mapstructure:"network_difficulty" json:"network_difficulty"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	Storage struct {
		ChainFile string `mapstructure:"chain_file" json:"chain_file"`
		PeerFile  string `mapstructure:"peer_file" json:"peer_file"`
	} `mapstructure:"storage" json:"storage"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig ChainConfig

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is loaded.
func Load(env string) (*ChainConfig, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	if AppConfig.GroupSize <= 0 {
		return nil, utils.Wrap(fmt.Errorf("group_size must be positive, got %d", AppConfig.GroupSize), "validate config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the DATACHAIN_ENV environment
// variable to pick the overlay, then lets DATACHAIN_GROUP_SIZE and
// DATACHAIN_PENDING_CACHE_CAPACITY override the loaded values, even when a
// config file sets them.
func LoadFromEnv() (*ChainConfig, error) {
	cfg, err := Load(utils.EnvOrDefault("DATACHAIN_ENV", ""))
	if err != nil {
		return nil, err
	}
	cfg.GroupSize = utils.EnvOrDefaultInt("DATACHAIN_GROUP_SIZE", cfg.GroupSize)
	cfg.PendingCacheCapacity = utils.EnvOrDefaultInt("DATACHAIN_PENDING_CACHE_CAPACITY", cfg.PendingCacheCapacity)
	return cfg, nil
}

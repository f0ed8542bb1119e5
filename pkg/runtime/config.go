package runtime

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config keeps the settings of a Runtime.
type Config struct {
	// Maximum number of single nodes visited in one pass; 0 means no limit.
	FrameBudget int `toml:"frame-budget"`
	// Path of the state database. Empty means no persistence, and "default"
	// means DefaultDBPath.
	DB string `toml:"db"`
	// Path of the debug log.
	Log string `toml:"log"`
	// Path of a YAML document to seed the state with.
	State string `toml:"state"`
}

// LoadConfig reads a TOML configuration file. Unknown keys are errors.
func LoadConfig(name string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(name, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	if cfg.FrameBudget < 0 {
		return Config{}, fmt.Errorf("%s: frame-budget must be non-negative, got %d", name, cfg.FrameBudget)
	}
	return cfg, nil
}

// Merge returns cfg with the non-zero fields of override applied.
func (cfg Config) Merge(override Config) Config {
	if override.FrameBudget != 0 {
		cfg.FrameBudget = override.FrameBudget
	}
	if override.DB != "" {
		cfg.DB = override.DB
	}
	if override.Log != "" {
		cfg.Log = override.Log
	}
	if override.State != "" {
		cfg.State = override.State
	}
	return cfg
}

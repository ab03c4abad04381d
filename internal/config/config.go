package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "forgeqa.yaml"

type Config struct {
	Cargo struct {
		Binary string `yaml:"binary"`
	} `yaml:"cargo"`
	Registry struct {
		Path string `yaml:"path"` // optional YAML signature table
	} `yaml:"registry"`
	Ledger struct {
		Path string `yaml:"path"` // empty disables the ledger
	} `yaml:"ledger"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Log struct {
		JSON    bool `yaml:"json"`
		Verbose bool `yaml:"verbose"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Cargo.Binary = "cargo"
	cfg.Output.Dir = ".forgeqa"
	return cfg
}

// LoadConfig reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error when path is the default.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err) && path == DefaultPath:
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	// 3. Override with Environment Variables if present
	if v := os.Getenv("FORGEQA_CARGO"); v != "" {
		cfg.Cargo.Binary = v
	}
	if v := os.Getenv("FORGEQA_LEDGER"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("FORGEQA_REGISTRY"); v != "" {
		cfg.Registry.Path = v
	}
	if v := os.Getenv("FORGEQA_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, "FORGEQA_LOG_JSON=%q", v)
		}
		cfg.Log.JSON = b
	}

	return cfg, nil
}

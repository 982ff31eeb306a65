package app

import (
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverJSON     = "json"
	DriverXML      = "xml"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix) or YAML config files.
type Config struct {
	ManagerPassword string `default:"admin" usage:"Password that unlocks the manager menu"`
	SeedCustomers   bool   `default:"true" usage:"Register demo customers when the store has none"`
	Storage         StorageConfig
}

// StorageConfig selects where the store is loaded from and saved to.
type StorageConfig struct {
	Driver      string `default:"json" usage:"Snapshot backend to load from: json, xml or postgres"`
	JSONPath    string `default:"data.json" usage:"JSON snapshot path (.gz for gzip)"`
	XMLPath     string `default:"data.xml" usage:"XML snapshot path (.gz for gzip)"`
	SaveAll     bool   `default:"true" usage:"Write every file backend on save"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_STORAGE_DATABASE_URL or DATABASE_URL)"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		SkipFlags: true,
		Files:     []string{"store.yaml", "/etc/electrostore/store.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver-specific requirements.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverJSON, DriverXML:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set STORE_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL variable to the
// storage configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
}

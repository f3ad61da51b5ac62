// Package config loads the importer configuration: built-in defaults,
// optionally overridden by a YAML environment file, then by process
// environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries everything the importer needs beyond its input paths.
type Config struct {
	// ApplicationName and ApplicationVersion are stamped into every
	// movement's internal note for provenance.
	ApplicationName    string `yaml:"application_name"`
	ApplicationVersion string `yaml:"application_version"`

	// JobID is the externally supplied correlation identifier, typically set
	// by a job scheduler. Defaults to "n/a".
	JobID string `yaml:"job_id"`

	// DefaultBankCode is used for counter-parties whose statement record
	// carries no bank code.
	DefaultBankCode string `yaml:"default_bank_code"`

	// AccountCode selects the target bank account in the ledger; empty means
	// the field is omitted from movements.
	AccountCode string `yaml:"account_code"`

	// LedgerStore is the path of the file-backed ledger store.
	LedgerStore string `yaml:"ledger_store"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ApplicationName:    "pohoda-abo-importer",
		ApplicationVersion: "1.0.0",
		JobID:              "n/a",
		DefaultBankCode:    "0100",
		LedgerStore:        "pohoda-ledger.json",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), and finally environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read environment file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse environment file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.JobID == "" {
		cfg.JobID = "n/a"
	}
	return cfg, nil
}

// applyEnv overrides file and default values from the process environment.
func (c *Config) applyEnv() {
	envString("ABO_IMPORTER_JOB_ID", &c.JobID)
	envString("ABO_IMPORTER_DEFAULT_BANK_CODE", &c.DefaultBankCode)
	envString("ABO_IMPORTER_ACCOUNT_CODE", &c.AccountCode)
	envString("ABO_IMPORTER_LEDGER_STORE", &c.LedgerStore)
	if v, ok := os.LookupEnv("ABO_IMPORTER_VERBOSE"); ok {
		c.Verbose = v == "1" || v == "true"
	}
}

func envString(key string, target *string) {
	if v, ok := os.LookupEnv(key); ok {
		*target = v
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file at the root of a ledger repository.
	FileName = "ledger.yaml"
	// EnvRepo overrides the default repository path.
	EnvRepo = "SPLITLEDGER_REPO"

	BackendCSV    = "csv"
	BackendSQLite = "sqlite"

	DefaultSQLitePath = "ledger.db"
	DefaultChunkSize  = 500
	DefaultWorkers    = 4
)

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	PartyID  string         `yaml:"party_id"`
	Party    PartyConfig    `yaml:"party"`
	Storage  StorageConfig  `yaml:"storage"`
	Chunks   ChunksConfig   `yaml:"chunks"`
	Balances BalancesConfig `yaml:"balances"`
	Git      GitConfig      `yaml:"git"`
}

// PartyConfig describes the party the repository holds.
type PartyConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"` // ISO 4217, e.g. "EUR"
}

// StorageConfig selects the document backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"`               // "csv" or "sqlite"
	SQLitePath string `yaml:"sqlite_path,omitempty"` // relative to the repository
}

// ChunksConfig bounds chunk size.
type ChunksConfig struct {
	MaxSize int `yaml:"max_size"`
}

// BalancesConfig tunes balance computation.
type BalancesConfig struct {
	Workers int `yaml:"workers"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a ledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadRepo reads the config of the repository at root.
func LoadRepo(root string) (*Config, error) {
	return Load(filepath.Join(root, FileName))
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(partyID, name, currency string) *Config {
	return &Config{
		PartyID: partyID,
		Party: PartyConfig{
			Name:     name,
			Currency: strings.ToUpper(currency),
		},
		Storage: StorageConfig{
			Backend: BackendCSV,
		},
		Chunks: ChunksConfig{
			MaxSize: DefaultChunkSize,
		},
		Balances: BalancesConfig{
			Workers: DefaultWorkers,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "splitledger",
			AuthorEmail: "splitledger@localhost",
		},
	}
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PartyID == "" {
		errs = append(errs, errors.New("party_id is required"))
	}
	if c.Party.Name == "" {
		errs = append(errs, errors.New("party.name is required"))
	}
	if len(c.Party.Currency) != 3 {
		errs = append(errs, fmt.Errorf("party.currency %q is not a 3-letter code", c.Party.Currency))
	}
	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be %q or %q", c.Storage.Backend, BackendCSV, BackendSQLite))
	}
	if c.Chunks.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("chunks.max_size %d must not be negative", c.Chunks.MaxSize))
	}
	if c.Balances.Workers < 0 {
		errs = append(errs, fmt.Errorf("balances.workers %d must not be negative", c.Balances.Workers))
	}
	return errors.Join(errs...)
}

// SQLiteFile returns the database path for the repository at root.
func (c *Config) SQLiteFile(root string) string {
	p := c.Storage.SQLitePath
	if p == "" {
		p = DefaultSQLitePath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ChunkSize returns the configured chunk size or the default.
func (c *Config) ChunkSize() int {
	if c.Chunks.MaxSize <= 0 {
		return DefaultChunkSize
	}
	return c.Chunks.MaxSize
}

// WorkerCount returns the configured balance workers or the default.
func (c *Config) WorkerCount() int {
	if c.Balances.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Balances.Workers
}

// RepoFromEnv returns the repository path from EnvRepo, or fallback.
func RepoFromEnv(fallback string) string {
	if v := os.Getenv(EnvRepo); v != "" {
		return v
	}
	return fallback
}

// Package config manages the donors configuration stored in donors.yaml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file name inside the data directory.
const FileName = "donors.yaml"

// LogLevels are the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config stores all user configurable settings.
// Loaded from donors.yaml, created with defaults if missing.
type Config struct {
	// DataFile is the donor file. Relative paths are resolved against the data
	// directory.
	DataFile string `yaml:"data_file" jsonschema:"description=Donor file path; relative to the data directory,default=donors.csv"`

	// MinGapMonths is the minimum number of months between two donations.
	MinGapMonths int `yaml:"min_gap_months" jsonschema:"description=Minimum months between two donations,minimum=0,default=3"`

	// MinAge and MaxAge bound the age accepted at registration.
	MinAge int `yaml:"min_age" jsonschema:"description=Minimum donor age at registration,minimum=0,default=18"`
	MaxAge int `yaml:"max_age" jsonschema:"description=Maximum donor age at registration,minimum=0,default=65"`

	// LogLevel is used when the -log-level flag is not set.
	LogLevel string `yaml:"log_level" jsonschema:"description=Log level,enum=debug,enum=info,enum=warn,enum=error,default=warn"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataFile:     "donors.csv",
		MinGapMonths: 3,
		MinAge:       18,
		MaxAge:       65,
		LogLevel:     "warn",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return errors.New("data_file is required")
	}
	if c.MinGapMonths < 0 {
		return errors.New("min_gap_months must be non-negative")
	}
	if c.MinAge < 0 {
		return errors.New("min_age must be non-negative")
	}
	if c.MaxAge < c.MinAge {
		return fmt.Errorf("max_age (%d) must not be lower than min_age (%d)", c.MaxAge, c.MinAge)
	}
	if !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// DataPath returns the absolute or dataDir-relative donor file path.
func (c *Config) DataPath(dataDir string) string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(dataDir, c.DataFile)
}

// Load loads configuration from dataDir/donors.yaml.
// Creates the file with defaults if it doesn't exist.
// Fields missing from the file keep their default value.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, FileName)
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/donors.yaml.
func (c *Config) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, FileName), data, 0o644); err != nil { //nolint:gosec // G306: config holds no secret
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// Schema returns the JSON schema describing donors.yaml.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{FieldNameTag: "yaml", DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = FileName
	return json.MarshalIndent(s, "", "  ")
}

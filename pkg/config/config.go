// Package config provides run configuration for the document organizer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/archive"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/identity"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/validation"
)

// Config is the complete run configuration.
type Config struct {
	Roster   RosterConfig   `yaml:"roster"`
	Scan     ScanConfig     `yaml:"scan"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Identity IdentityConfig `yaml:"identity"`
}

// RosterConfig locates and interprets the patient roster.
type RosterConfig struct {
	// Path is the roster file (.xlsx or .csv).
	Path string `yaml:"path"`
	// Sheet selects the worksheet; empty means the first sheet.
	Sheet string `yaml:"sheet"`
	// NameColumn and IDColumn are the header names to read.
	NameColumn string `yaml:"name_column"`
	IDColumn   string `yaml:"id_column"`
}

// ScanConfig narrows the candidate file set.
type ScanConfig struct {
	// Extensions qualify candidate files, matched case-insensitively.
	Extensions []string `yaml:"extensions"`
	// Patterns are optional doublestar globs relative to the source root.
	Patterns []string `yaml:"patterns"`
}

// ArchiveConfig holds the output caps.
type ArchiveConfig struct {
	// SampleCap is the per-(patient, category) cap of the bounded sample.
	SampleCap int `yaml:"sample_cap"`
	// BatchMax is the maximum files per validation batch.
	BatchMax int `yaml:"batch_max"`
}

// IdentityConfig tunes the identity resolution strategies.
type IdentityConfig struct {
	// Offsets maps category codes to the name token offset from the
	// category marker, for categories needing directed extraction.
	Offsets map[string]int `yaml:"offsets"`
	// DefaultOffset is the positional fallback's token index.
	DefaultOffset int `yaml:"default_offset"`
	// IDRoot is the OID of the patient identifier element in document
	// content.
	IDRoot string `yaml:"id_oid"`
}

// Default returns the production defaults.
func Default() *Config {
	idDefaults := identity.DefaultConfig()
	offsets := make(map[string]int, len(idDefaults.Offsets))
	for cat, off := range idDefaults.Offsets {
		offsets[string(cat)] = off
	}
	return &Config{
		Roster: RosterConfig{
			NameColumn: roster.DefaultNameColumn,
			IDColumn:   roster.DefaultIDColumn,
		},
		Scan: ScanConfig{
			Extensions: []string{".xml"},
		},
		Archive: ArchiveConfig{
			SampleCap: archive.DefaultSampleCap,
			BatchMax:  validation.DefaultBatchMax,
		},
		Identity: IdentityConfig{
			Offsets:       offsets,
			DefaultOffset: idDefaults.DefaultOffset,
			IDRoot:        idDefaults.IDRoot,
		},
	}
}

// Load reads a YAML config file over the defaults: fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Archive.SampleCap <= 0 {
		return fmt.Errorf("archive.sample_cap must be positive, got %d", c.Archive.SampleCap)
	}
	if c.Archive.BatchMax <= 0 {
		return fmt.Errorf("archive.batch_max must be positive, got %d", c.Archive.BatchMax)
	}
	if c.Identity.DefaultOffset < 0 {
		return fmt.Errorf("identity.default_offset must not be negative, got %d", c.Identity.DefaultOffset)
	}
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	return nil
}

// ResolverConfig converts the loaded identity section into the resolver's
// config type.
func (c *Config) ResolverConfig() identity.Config {
	offsets := make(map[document.CategoryCode]int, len(c.Identity.Offsets))
	for cat, off := range c.Identity.Offsets {
		offsets[document.CategoryCode(cat)] = off
	}
	return identity.Config{
		Offsets:       offsets,
		DefaultOffset: c.Identity.DefaultOffset,
		IDRoot:        c.Identity.IDRoot,
	}
}

// RosterOptions converts the roster section into loader options.
func (c *Config) RosterOptions() roster.Options {
	return roster.Options{
		Sheet:      c.Roster.Sheet,
		NameColumn: c.Roster.NameColumn,
		IDColumn:   c.Roster.IDColumn,
	}
}

// Package config loads and validates the pipeline's PolicyConfig: the
// size/count ceilings and behavioral toggles selected by the spec's
// policy ∈ {strict, default, dev} (§3, §6). It follows the reference
// implementation's config.Config shape (DefaultConfig/Load/Save/Validate
// over a YAML file) reduced to the fields this system's stages need.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"intentforge/internal/logging"
)

// PolicyName is one of strict/default/dev (§3 LedgerEntry.policy).
type PolicyName string

const (
	PolicyStrict  PolicyName = "strict"
	PolicyDefault PolicyName = "default"
	PolicyDev     PolicyName = "dev"
)

// Valid reports whether n is one of the three recognized policy names.
func (n PolicyName) Valid() bool {
	switch n {
	case PolicyStrict, PolicyDefault, PolicyDev:
		return true
	default:
		return false
	}
}

// PolicySchemaVersion is the literal schema version PolicyConfig files carry.
const PolicySchemaVersion = "1.0.0"

// PolicyConfig carries every size/count ceiling and behavioral toggle a
// pipeline run is governed by. It is the file format of the pack's
// optional policy.json (§3 PackManifest) and the argument to
// `pack-export --policy`. Per §6 ("The exporter reads no environment
// state"), PolicyConfig deliberately has no applyEnvOverrides: the core
// reads no environment variables, unlike the reference implementation's
// LLM-provider config it was adapted from.
type PolicyConfig struct {
	PolicySchemaVersion string     `yaml:"policy_schema_version" json:"policy_schema_version"`
	Name                PolicyName `yaml:"name" json:"name"`

	Ceilings Ceilings `yaml:"ceilings" json:"ceilings"`

	// AllowDirtyGitDefault is the default for git-apply's --allow-dirty
	// flag when the caller does not pass it explicitly.
	AllowDirtyGitDefault bool `yaml:"allow_dirty_git_default" json:"allow_dirty_git_default"`

	// RequireSignedPacks is true under "strict" and false otherwise. It is
	// recorded in the exported policy.json; pack verification does not read
	// it, so an unsigned pack verifies under every policy.
	RequireSignedPacks bool `yaml:"require_signed_packs" json:"require_signed_packs"`
}

// DefaultPolicyConfig returns the built-in ceilings for name, following the
// reference implementation's DefaultConfig() pattern: strict is the most
// conservative (smallest ceilings, require_signed_packs set), dev the most
// permissive, default in between.
func DefaultPolicyConfig(name PolicyName) *PolicyConfig {
	cfg := &PolicyConfig{
		PolicySchemaVersion: PolicySchemaVersion,
		Name:                name,
	}
	switch name {
	case PolicyStrict:
		cfg.Ceilings = Ceilings{
			MaxPackTotalBytes: 10 * 1024 * 1024,
			MaxInteractions:   1000,
			MaxOperations:     500,
			MaxOutputs:        200,
			MaxGoalLength:     20000,
			MaxConstraints:    200,
		}
		cfg.RequireSignedPacks = true
	case PolicyDev:
		cfg.Ceilings = Ceilings{
			MaxPackTotalBytes: 200 * 1024 * 1024,
			MaxInteractions:   10000,
			MaxOperations:     5000,
			MaxOutputs:        2000,
			MaxGoalLength:     200000,
			MaxConstraints:    2000,
		}
		cfg.AllowDirtyGitDefault = true
	default:
		cfg.Name = PolicyDefault
		cfg.Ceilings = Ceilings{
			MaxPackTotalBytes: 50 * 1024 * 1024,
			MaxInteractions:   10000,
			MaxOperations:     2000,
			MaxOutputs:        1000,
			MaxGoalLength:     100000,
			MaxConstraints:    500,
		}
	}
	return cfg
}

// Load reads a PolicyConfig from a YAML file at path. A missing file is
// not an error: it returns DefaultPolicyConfig("default"), matching the
// reference implementation's Load() fallback-to-defaults behavior.
func Load(path string) (*PolicyConfig, error) {
	cfg := DefaultPolicyConfig(PolicyDefault)
	logging.Get(logging.CategoryBoot).Debug("loading policy config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryBoot).Info("policy config file not found, using defaults: %s", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read policy config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse policy config: %w", err)
	}
	return cfg, nil
}

// Save writes c to path as YAML, creating parent directories as needed.
func (c *PolicyConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create policy config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal policy config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write policy config: %w", err)
	}
	return nil
}

// Validate checks that the policy name and ceilings are well-formed.
func (c *PolicyConfig) Validate() error {
	if !c.Name.Valid() {
		return fmt.Errorf("config: invalid policy name %q (valid: strict, default, dev)", c.Name)
	}
	return c.Ceilings.Validate()
}

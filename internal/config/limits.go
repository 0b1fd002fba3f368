package config

import "fmt"

// Ceilings enforces the size/count bounds of §4.5 ("Size / count bounds —
// configurable ceilings (e.g., ≤ 10,000 interactions, ≤ 50 MB pack
// total)"), reduced from the reference implementation's CoreLimits shape
// (MaxTotalMemoryMB, MaxConcurrentShards, ...) to the ceilings this
// deterministic pipeline actually enforces: it has no long-lived process
// or concurrent-shard model to bound (§5).
type Ceilings struct {
	MaxPackTotalBytes int64 `yaml:"max_pack_total_bytes" json:"max_pack_total_bytes"`
	MaxInteractions   int   `yaml:"max_interactions" json:"max_interactions"`
	MaxOperations     int   `yaml:"max_operations" json:"max_operations"`
	MaxOutputs        int   `yaml:"max_outputs" json:"max_outputs"`
	MaxGoalLength     int   `yaml:"max_goal_length" json:"max_goal_length"`
	MaxConstraints    int   `yaml:"max_constraints" json:"max_constraints"`
}

// Validate checks that every ceiling is a sane positive bound.
func (c Ceilings) Validate() error {
	if c.MaxPackTotalBytes < 1024 {
		return fmt.Errorf("config: max_pack_total_bytes must be >= 1024")
	}
	if c.MaxInteractions < 1 {
		return fmt.Errorf("config: max_interactions must be >= 1")
	}
	if c.MaxOperations < 1 {
		return fmt.Errorf("config: max_operations must be >= 1")
	}
	if c.MaxOutputs < 1 {
		return fmt.Errorf("config: max_outputs must be >= 1")
	}
	if c.MaxGoalLength < 1 {
		return fmt.Errorf("config: max_goal_length must be >= 1")
	}
	if c.MaxConstraints < 1 {
		return fmt.Errorf("config: max_constraints must be >= 1")
	}
	return nil
}

// AsMap mirrors the reference implementation's EnforceCoreLimits() pattern:
// exposing ceilings as a plain map so a caller can report them without
// reaching into the struct.
func (c Ceilings) AsMap() map[string]int64 {
	return map[string]int64{
		"max_pack_total_bytes": c.MaxPackTotalBytes,
		"max_interactions":     int64(c.MaxInteractions),
		"max_operations":       int64(c.MaxOperations),
		"max_outputs":          int64(c.MaxOutputs),
		"max_goal_length":      int64(c.MaxGoalLength),
		"max_constraints":      int64(c.MaxConstraints),
	}
}

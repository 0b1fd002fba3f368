// Package bundle defines the intent→bundle data model (§3) and the bundle
// assembler (C4): the pure decomposition of a normalized intent into a tree
// of context nodes, unresolved questions, and proposed output artifacts.
package bundle

import "intentforge/internal/metrics"

// SchemaVersion is the literal BUNDLE_SPEC schema version this package
// produces and the verifier checks against. It is a semver string so
// verify.CompatibleSchemaVersion (github.com/Masterminds/semver/v3) can
// additionally accept any non-breaking (same-major) producer version.
const SchemaVersion = "1.0.0"

// Question is a clarification the assembler could not resolve on its own.
type Question struct {
	ID              string        `json:"id"`
	Text            string        `json:"text"`
	WhyNeeded       string        `json:"why_needed"`
	InformationGain metrics.Score `json:"information_gain"`
	Priority        metrics.Score `json:"priority"`
	Options         []string      `json:"options,omitempty"`
}

// Output is a proposed artifact a terminal node would produce.
type Output struct {
	ID                string        `json:"id"`
	Path              string        `json:"path"`
	SourceConstraints []string      `json:"source_constraints"`
	Confidence        metrics.Score `json:"confidence"`
}

// ContextNode is one node of the decomposition tree.
type ContextNode struct {
	ID                  string                `json:"id"`
	ParentID            *string               `json:"parent_id"`
	Goal                string                `json:"goal"`
	Constraints         []string              `json:"constraints"`
	Children            []string              `json:"children"`
	UnresolvedQuestions []Question            `json:"unresolved_questions"`
	Entropy             metrics.EntropyResult `json:"entropy"`
	Density             metrics.DensityResult `json:"density"`

	// subtree, output, and depth are assembler bookkeeping only: unexported
	// so they never reach JSON serialization or content-ID hashing. A node
	// has either a non-empty subtree (it decomposed) or a non-nil output
	// (it is terminal), never both.
	subtree []ContextNode
	output  *Output
	depth   int
}

// Stats summarizes a bundle's tree.
type Stats struct {
	MaxDepth            int           `json:"max_depth"`
	AvgTerminalEntropy  metrics.Score `json:"avg_terminal_entropy"`
	AvgTerminalDensity  metrics.Score `json:"avg_terminal_density"`
	TerminalNodeCount   int           `json:"terminal_node_count"`
}

// Bundle is the assembler's complete, deterministic output.
type Bundle struct {
	SchemaVersion       string        `json:"schema_version"`
	ID                  string        `json:"id"`
	RootNode            ContextNode   `json:"root_node"`
	TerminalNodes       []ContextNode `json:"terminal_nodes"`
	Outputs             []Output      `json:"outputs"`
	UnresolvedQuestions []Question    `json:"unresolved_questions"`
	Stats               Stats         `json:"stats"`
}

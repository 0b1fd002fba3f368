package bundle

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"intentforge/internal/canon"
	"intentforge/internal/metrics"
	"intentforge/internal/normalize"
)

// maxDecomposeDepth is the hard depth bound of §4.4 step 2: enforced even
// if a decomposition rule would otherwise keep firing.
const maxDecomposeDepth = 10

// entropyRefWeight mirrors metrics' own weighting so a question's
// information_gain estimates the entropy this node would shed if its
// unresolved references were resolved (documented alongside the
// entropy_score coefficient decision in DESIGN.md).
const entropyRefWeight = 8

// Assemble decomposes a normalized intent into a Bundle, per §4.4.
// ContentID computation is bottom-up: a node's ID is derived from its body
// with both "id" and "parent_id" omitted (parent_id cannot be known until
// the parent's own ID is computed, which in turn depends on its children's
// IDs, so parent_id is excluded from the hash input to break this cycle
// without back-pointers).
func Assemble(intent normalize.NormalizedIntent) (Bundle, error) {
	root, err := buildNode(intent.Goal, intent.Constraints, 0)
	if err != nil {
		return Bundle{}, err
	}

	terminals := collectTerminals(&root)
	sort.Slice(terminals, func(i, j int) bool { return terminals[i].ID < terminals[j].ID })

	outputs := collectOutputs(&root)
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Path < outputs[j].Path })

	questions := collectQuestions(&root)
	sortQuestions(questions)

	stats := computeStats(terminals)

	b := Bundle{
		SchemaVersion:       SchemaVersion,
		RootNode:            root,
		TerminalNodes:       terminals,
		Outputs:             outputs,
		UnresolvedQuestions: questions,
		Stats:               stats,
	}
	id, err := contentID("bundle_", b)
	if err != nil {
		return Bundle{}, err
	}
	b.ID = id
	return b, nil
}

// buildNode recursively builds a ContextNode and its subtree. parentID is
// never set here; the caller assigns it once the parent's own ID is known.
func buildNode(goal string, constraints []string, depth int) (ContextNode, error) {
	ent := metrics.Entropy(goal, constraints)
	den := metrics.Density(constraints)

	questions, err := buildQuestions(goal, constraints, ent)
	if err != nil {
		return ContextNode{}, err
	}

	var children []ContextNode
	if depth < maxDecomposeDepth && len(constraints) > 1 {
		for _, c := range constraints {
			child, err := buildNode(goal, []string{c}, depth+1)
			if err != nil {
				return ContextNode{}, err
			}
			children = append(children, child)
		}
	}

	node := ContextNode{
		ParentID:            nil,
		Goal:                goal,
		Constraints:         append([]string(nil), constraints...),
		UnresolvedQuestions: questions,
		Entropy:             ent,
		Density:             den,
		depth:               depth,
	}

	childIDs := make([]string, len(children))
	for i, c := range children {
		childIDs[i] = c.ID
	}
	sort.Strings(childIDs)
	node.Children = childIDs

	nodeID, err := nodeContentID(node)
	if err != nil {
		return ContextNode{}, err
	}
	node.ID = nodeID

	for i := range children {
		parent := nodeID
		children[i].ParentID = &parent
	}

	if len(children) == 0 {
		out, err := buildOutput(node)
		if err != nil {
			return ContextNode{}, err
		}
		node.output = &out
	} else {
		node.subtree = children
	}

	return node, nil
}

// nodeContentID computes a ContextNode's ID from its body with both "id"
// and "parent_id" omitted.
func nodeContentID(n ContextNode) (string, error) {
	tree, err := canon.ToTree(n)
	if err != nil {
		return "", err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return "", fmt.Errorf("nodeContentID: not an object")
	}
	delete(obj, "id")
	delete(obj, "parent_id")
	b, err := canon.Canonicalize(obj)
	if err != nil {
		return "", err
	}
	full := canon.HashBytes(b)
	return "node_" + strings.TrimPrefix(full, "sha256:")[:16], nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// buildOutput derives a terminal node's proposed output artifact. path is
// a pure function of the node's constraints and its own ID, never of
// wall-clock time or iteration order.
func buildOutput(node ContextNode) (Output, error) {
	slug := slugify(node.Goal)
	if len(node.Constraints) > 0 {
		slug = slugify(node.Constraints[0])
	}
	if slug == "" {
		slug = "output"
	}
	confidence := metrics.Score(100 - int(node.Entropy.EntropyScore))
	if confidence < 0 {
		confidence = 0
	}
	out := Output{
		Path:              fmt.Sprintf("generated/%s_%s.txt", slug, node.ID),
		SourceConstraints: append([]string(nil), node.Constraints...),
		Confidence:        confidence,
	}
	id, err := contentID("out_", out)
	if err != nil {
		return Output{}, err
	}
	out.ID = id
	return out, nil
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// buildQuestions produces unresolved_questions for a node. A single
// question is raised when the node's text contains unresolved placeholder
// references; its information_gain estimates the entropy this node would
// shed once those references are resolved.
func buildQuestions(goal string, constraints []string, ent metrics.EntropyResult) ([]Question, error) {
	if ent.UnresolvedRefs == 0 {
		return nil, nil
	}
	gain := ent.UnresolvedRefs * entropyRefWeight
	if gain > int(ent.EntropyScore) {
		gain = int(ent.EntropyScore)
	}
	q := Question{
		Text:            "Resolve unresolved placeholder references in goal or constraints.",
		WhyNeeded:       fmt.Sprintf("%d unresolved reference(s) detected.", ent.UnresolvedRefs),
		InformationGain: metrics.Score(gain),
		Priority:        metrics.Score(clampInt(ent.UnresolvedRefs*25, 100)),
	}
	id, err := contentID("q_", q)
	if err != nil {
		return nil, err
	}
	q.ID = id
	return []Question{q}, nil
}

func clampInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func sortQuestions(qs []Question) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Priority != qs[j].Priority {
			return qs[i].Priority > qs[j].Priority
		}
		return qs[i].ID < qs[j].ID
	})
}

func collectTerminals(n *ContextNode) []ContextNode {
	if len(n.subtree) == 0 {
		return []ContextNode{stripInternal(*n)}
	}
	var out []ContextNode
	for i := range n.subtree {
		out = append(out, collectTerminals(&n.subtree[i])...)
	}
	return out
}

func collectOutputs(n *ContextNode) []Output {
	if len(n.subtree) == 0 {
		if n.output != nil {
			return []Output{*n.output}
		}
		return nil
	}
	var out []Output
	for i := range n.subtree {
		out = append(out, collectOutputs(&n.subtree[i])...)
	}
	return out
}

func collectQuestions(n *ContextNode) []Question {
	out := append([]Question(nil), n.UnresolvedQuestions...)
	for i := range n.subtree {
		out = append(out, collectQuestions(&n.subtree[i])...)
	}
	return out
}

func stripInternal(n ContextNode) ContextNode {
	n.subtree = nil
	n.output = nil
	return n
}

func computeStats(terminals []ContextNode) Stats {
	stats := Stats{TerminalNodeCount: len(terminals)}
	if len(terminals) == 0 {
		return stats
	}
	var sumEntropy, sumDensity, maxDepth int
	for _, t := range terminals {
		sumEntropy += int(t.Entropy.EntropyScore)
		sumDensity += int(t.Density.DensityScore)
		if t.depth > maxDepth {
			maxDepth = t.depth
		}
	}
	stats.AvgTerminalEntropy = metrics.Score(sumEntropy / len(terminals))
	stats.AvgTerminalDensity = metrics.Score(sumDensity / len(terminals))
	stats.MaxDepth = maxDepth
	return stats
}

package verify

import (
	"fmt"
	"regexp"

	"intentforge/internal/bundle"
	"intentforge/internal/canon"
)

// BundleVerifyResult is BUNDLE_SPEC's verify() result.
type BundleVerifyResult struct {
	Outcome
}

var idFormatRe = map[string]*regexp.Regexp{
	"bundle_": regexp.MustCompile(`^bundle_[0-9a-f]{16}$`),
	"node_":   regexp.MustCompile(`^node_[0-9a-f]{16}$`),
	"q_":      regexp.MustCompile(`^q_[0-9a-f]{16}$`),
	"out_":    regexp.MustCompile(`^out_[0-9a-f]{16}$`),
}

func idFormatValid(prefix, id string) bool {
	re, ok := idFormatRe[prefix]
	return ok && re.MatchString(id)
}

// VerifyBundle validates raw bundle.json bytes against BUNDLE_SPEC (BS1-BS8).
func VerifyBundle(raw []byte) BundleVerifyResult {
	var buf Buffer
	if schemaViolations := schemaBoundary(bundleSchema, raw); len(schemaViolations) > 0 {
		buf.AddAll(schemaViolations)
		return BundleVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	var b bundle.Bundle
	if err := jsonUnmarshal(raw, &b); err != nil {
		buf.Add("SCHEMA", "", err.Error())
		return BundleVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	// BS1: schema_version present and compatible.
	if !CompatibleSchemaVersion(b.SchemaVersion, bundle.SchemaVersion) {
		buf.Add("BS1", "schema_version", fmt.Sprintf("unsupported schema_version %q", b.SchemaVersion))
	}

	// BS2: content-derived ID formats.
	if !idFormatValid("bundle_", b.ID) {
		buf.Add("BS2", "id", "malformed bundle id")
	}
	if !idFormatValid("node_", b.RootNode.ID) {
		buf.Add("BS2", "root_node.id", "malformed node id")
	}

	// BS3: outputs strictly sorted by path (so paths are unique); BS6:
	// path safety; BS2: output id format.
	for i, o := range b.Outputs {
		if i > 0 && b.Outputs[i-1].Path >= o.Path {
			buf.Add("BS3", fmt.Sprintf("outputs[%d].path", i), "outputs not strictly sorted by path")
		}
		if !PathSafe(o.Path) {
			buf.Add("BS6", fmt.Sprintf("outputs[%d].path", i), "output path fails path-safety rule")
		}
		if !idFormatValid("out_", o.ID) {
			buf.Add("BS2", fmt.Sprintf("outputs[%d].id", i), "malformed output id")
		}
	}

	// BS4: terminal_nodes sorted by id.
	for i, n := range b.TerminalNodes {
		if i > 0 && b.TerminalNodes[i-1].ID >= n.ID {
			buf.Add("BS4", fmt.Sprintf("terminal_nodes[%d].id", i), "terminal_nodes not strictly sorted by id")
		}
		if !idFormatValid("node_", n.ID) {
			buf.Add("BS2", fmt.Sprintf("terminal_nodes[%d].id", i), "malformed node id")
		}
	}

	// BS5: unresolved_questions sorted by (priority desc, id asc).
	checkQuestionOrder(&buf, "unresolved_questions", b.UnresolvedQuestions)
	checkQuestionOrder(&buf, "root_node.unresolved_questions", b.RootNode.UnresolvedQuestions)

	// BS7: round-trip canonicity.
	if tree, err := canon.ParseTree(raw); err != nil || !RoundTripsCanonically(tree) {
		buf.Add("BS7", "", "bundle does not round-trip canonically")
	}

	// BS8: cross-field consistency.
	if b.Stats.TerminalNodeCount != len(b.TerminalNodes) {
		buf.Add("BS8", "stats.terminal_node_count", "terminal_node_count does not match len(terminal_nodes)")
	}

	return BundleVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

func checkQuestionOrder(buf *Buffer, path string, qs []bundle.Question) {
	for i := 1; i < len(qs); i++ {
		prev, cur := qs[i-1], qs[i]
		ok := prev.Priority > cur.Priority || (prev.Priority == cur.Priority && prev.ID < cur.ID)
		if !ok {
			buf.Add("BS5", fmt.Sprintf("%s[%d]", path, i), "questions not sorted by (priority desc, id asc)")
		}
	}
}

package patchset

import (
	"fmt"
	"sort"

	"intentforge/internal/bundle"
)

// FromBundle derives a PatchSet binding one `create` operation to each of
// b's proposed outputs, in the ordering §3 requires (operations sorted by
// (order asc, path asc)). bundleHash is the full ContentHash of b (§3
// PatchSet.source_proposal_hash), computed by the caller since a bundle's
// own `id` is only the leading 16 hex characters of that hash.
//
// The content written for each output is a deterministic placeholder
// derived purely from the bundle ID, the output's ID and its source
// constraints — spec §1 scopes code generation itself (an LLM's job) out of the core;
// this only has to produce *some* UTF-8 content whose bytes the Patch/Git
// Apply engines can write and hash reproducibly.
func FromBundle(b bundle.Bundle, bundleHash string) PatchSet {
	ops := make([]Operation, 0, len(b.Outputs))
	for i, o := range b.Outputs {
		content := placeholderContent(b.ID, o)
		ops = append(ops, Operation{
			Op:        OpCreate,
			Path:      o.Path,
			Content:   &content,
			SizeBytes: len([]byte(content)),
			Order:     i,
		})
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Order != ops[j].Order {
			return ops[i].Order < ops[j].Order
		}
		return ops[i].Path < ops[j].Path
	})

	total := 0
	for _, op := range ops {
		total += op.SizeBytes
	}

	return PatchSet{
		PatchSchemaVersion: PatchSchemaVersion,
		SourceProposalID:   b.ID,
		SourceProposalHash: bundleHash,
		Operations:         ops,
		TotalBytes:         total,
	}
}

func placeholderContent(bundleID string, o bundle.Output) string {
	s := fmt.Sprintf("// generated from bundle %s output %s\n", bundleID, o.ID)
	for _, c := range o.SourceConstraints {
		s += "// constraint: " + c + "\n"
	}
	return s
}

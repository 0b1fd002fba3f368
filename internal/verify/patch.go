package verify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"intentforge/internal/canon"
	"intentforge/internal/patchset"
)

// PatchVerifyResult is PATCH_SPEC's verify() result.
type PatchVerifyResult struct {
	Outcome
}

// VerifyPatch validates raw patch.json bytes against PATCH_SPEC (PS1-PS10).
func VerifyPatch(raw []byte) PatchVerifyResult {
	var buf Buffer
	if schemaViolations := schemaBoundary(patchSchema, raw); len(schemaViolations) > 0 {
		buf.AddAll(schemaViolations)
		return PatchVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	var p patchset.PatchSet
	if err := jsonUnmarshal(raw, &p); err != nil {
		buf.Add("SCHEMA", "", err.Error())
		return PatchVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	// PS1: schema_version present and compatible.
	if !CompatibleSchemaVersion(p.PatchSchemaVersion, patchset.PatchSchemaVersion) {
		buf.Add("PS1", "patch_schema_version", fmt.Sprintf("unsupported patch_schema_version %q", p.PatchSchemaVersion))
	}

	// PS2: source_proposal_hash format.
	if !canon.IsValidHash(p.SourceProposalHash) {
		buf.Add("PS2", "source_proposal_hash", "malformed ContentHash")
	}

	seenPaths := make(map[string]int, len(p.Operations))
	sumBytes := 0
	for i, op := range p.Operations {
		path := fmt.Sprintf("operations[%d]", i)

		// PS3: path safety.
		if !PathSafe(op.Path) {
			buf.Add("PS3", path+".path", "path fails path-safety rule")
		}

		// PS4: ordering sorted by (order asc, path asc).
		if i > 0 {
			prev := p.Operations[i-1]
			if prev.Order > op.Order || (prev.Order == op.Order && prev.Path >= op.Path) {
				buf.Add("PS4", path, "operations not sorted by (order asc, path asc)")
			}
		}

		// PS5: at-most-once per path.
		if first, ok := seenPaths[op.Path]; ok {
			buf.Add("PS5", path+".path", fmt.Sprintf("duplicate path, first seen at operations[%d]", first))
		} else {
			seenPaths[op.Path] = i
		}

		switch op.Op {
		case patchset.OpCreate, patchset.OpModify:
			// PS6: content required, UTF-8, no NUL bytes.
			if op.Content == nil {
				buf.Add("PS6", path+".content", "content required for create/modify")
			} else {
				if !utf8.ValidString(*op.Content) {
					buf.Add("PS6", path+".content", "content is not valid UTF-8")
				}
				if strings.ContainsRune(*op.Content, 0) {
					buf.Add("PS6", path+".content", "content contains a NUL byte")
				}
				// PS7: size_bytes matches content length.
				if op.SizeBytes != len([]byte(*op.Content)) {
					buf.Add("PS7", path+".size_bytes", "size_bytes does not match content length")
				}
			}
		case patchset.OpDelete:
			// PS8: content forbidden for delete.
			if op.Content != nil {
				buf.Add("PS8", path+".content", "content forbidden for delete")
			}
			if op.SizeBytes != 0 {
				buf.Add("PS8", path+".size_bytes", "size_bytes must be 0 for delete")
			}
		default:
			buf.Add("SCHEMA", path+".op", fmt.Sprintf("unknown op %q", op.Op))
		}

		sumBytes += op.SizeBytes
	}

	// PS9: total_bytes is the sum of size_bytes.
	if p.TotalBytes != sumBytes {
		buf.Add("PS9", "total_bytes", "total_bytes does not equal sum of operation size_bytes")
	}

	// PS10: round-trip canonicity.
	if tree, err := canon.ParseTree(raw); err != nil || !RoundTripsCanonically(tree) {
		buf.Add("PS10", "", "patch does not round-trip canonically")
	}

	return PatchVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

package verify

import (
	"fmt"
	"strings"

	"intentforge/internal/canon"
	"intentforge/internal/patchset"
)

// ApplyVerifyResult is APPLY_SPEC's verify() result.
type ApplyVerifyResult struct {
	Outcome
}

// VerifyApply validates raw apply-result bytes against APPLY_SPEC
// (AS1-AS12). Spec §4.5 names the invariant families (schema version,
// sorted containers, path safety, hash format, cross-field consistency,
// round-trip canonicity) without enumerating per-artifact rule IDs; this
// assigns one AS id per invariant as applied to ApplyResult's fields (§3,
// §4.6), mirroring the BS/PS numbering already fixed for BUNDLE_SPEC and
// PATCH_SPEC.
func VerifyApply(raw []byte) ApplyVerifyResult {
	var buf Buffer
	if schemaViolations := schemaBoundary(applyResultSchema, raw); len(schemaViolations) > 0 {
		buf.AddAll(schemaViolations)
		return ApplyVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	var r patchset.ApplyResult
	if err := jsonUnmarshal(raw, &r); err != nil {
		buf.Add("SCHEMA", "", err.Error())
		return ApplyVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	// AS1: apply_schema_version present and compatible.
	if !CompatibleSchemaVersion(r.ApplySchemaVersion, patchset.ApplySchemaVersion) {
		buf.Add("AS1", "apply_schema_version", fmt.Sprintf("unsupported apply_schema_version %q", r.ApplySchemaVersion))
	}

	// AS5: target_root must not contain a traversal component.
	if strings.Contains(strings.ReplaceAll(r.TargetRoot, "\\", "/"), "..") {
		buf.Add("AS5", "target_root", "target_root contains a traversal component")
	}

	succeeded, skipped, failed := 0, 0, 0
	totalBytesWritten := 0
	for i, or := range r.OperationResults {
		path := fmt.Sprintf("operation_results[%d]", i)

		// AS2: operation_results sorted strictly by path.
		if i > 0 && r.OperationResults[i-1].Path >= or.Path {
			buf.Add("AS2", path+".path", "operation_results not strictly sorted by path")
		}

		// AS3: path safety.
		if !PathSafe(or.Path) {
			buf.Add("AS3", path+".path", "path fails path-safety rule")
		}

		// AS4: hash format for non-null before_hash/after_hash.
		if or.BeforeHash != nil && !canon.IsValidHash(*or.BeforeHash) {
			buf.Add("AS4", path+".before_hash", "malformed ContentHash")
		}
		if or.AfterHash != nil && !canon.IsValidHash(*or.AfterHash) {
			buf.Add("AS4", path+".after_hash", "malformed ContentHash")
		}

		// AS6: status enum.
		switch or.Status {
		case patchset.StatusSuccess, patchset.StatusSkipped, patchset.StatusError:
		default:
			buf.Add("AS6", path+".status", fmt.Sprintf("unknown status %q", or.Status))
		}

		// AS7: create must not carry a before_hash.
		if or.Op == patchset.OpCreate && or.BeforeHash != nil {
			buf.Add("AS7", path+".before_hash", "create operation must not have a before_hash")
		}

		// AS8: delete must not carry an after_hash and must write 0 bytes.
		if or.Op == patchset.OpDelete {
			if or.AfterHash != nil {
				buf.Add("AS8", path+".after_hash", "delete operation must not have an after_hash")
			}
			if or.Status == patchset.StatusSuccess && or.BytesWritten != 0 {
				buf.Add("AS8", path+".bytes_written", "delete operation must write 0 bytes")
			}
		}

		switch or.Status {
		case patchset.StatusSuccess:
			succeeded++
			totalBytesWritten += or.BytesWritten
		case patchset.StatusSkipped:
			skipped++
		case patchset.StatusError:
			failed++
		}
	}

	// AS9: summary.total_operations matches len(operation_results).
	if r.Summary.TotalOperations != len(r.OperationResults) {
		buf.Add("AS9", "summary.total_operations", "total_operations does not match len(operation_results)")
	}

	// AS10: summary counts and total_bytes_written match the computed tallies.
	if r.Summary.Succeeded != succeeded {
		buf.Add("AS10", "summary.succeeded", "succeeded does not match counted successes")
	}
	if r.Summary.Skipped != skipped {
		buf.Add("AS10", "summary.skipped", "skipped does not match counted skips")
	}
	if r.Summary.Failed != failed {
		buf.Add("AS10", "summary.failed", "failed does not match counted failures")
	}
	if r.Summary.TotalBytesWritten != totalBytesWritten {
		buf.Add("AS10", "summary.total_bytes_written", "total_bytes_written does not match sum of successful bytes_written")
	}

	// AS11: outcome is consistent with the composition rule (§4.6 step 5).
	// Idempotence itself (repeating an applied patch reproduces hashes) is
	// informational and not checked by a single-artifact verifier.
	total := len(r.OperationResults)
	var expected patchset.Outcome
	switch {
	case r.Outcome == patchset.Refused:
		expected = patchset.Refused
	case total == 0 || succeeded == total:
		expected = patchset.Success
	case failed == total:
		expected = patchset.Failed
	default:
		expected = patchset.Partial
	}
	if r.Outcome != expected {
		buf.Add("AS11", "outcome", fmt.Sprintf("outcome %q inconsistent with operation_results composition (expected %q)", r.Outcome, expected))
	}

	// AS12: round-trip canonicity.
	if tree, err := canon.ParseTree(raw); err != nil || !RoundTripsCanonically(tree) {
		buf.Add("AS12", "", "apply result does not round-trip canonically")
	}

	return ApplyVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

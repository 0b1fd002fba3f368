package verify

import (
	"fmt"

	"intentforge/internal/canon"
	"intentforge/internal/patchset"
)

// GitApplyVerifyResult is GIT_APPLY_SPEC's verify() result.
type GitApplyVerifyResult struct {
	Outcome
}

// VerifyGitApply validates raw git-apply-result bytes against
// GIT_APPLY_SPEC (GA1-GA10), reusing the same invariant families as
// APPLY_SPEC plus the branch/git_state/commit/changed_files additions of
// §3 and the exit-code contract of §4.7.
func VerifyGitApply(raw []byte) GitApplyVerifyResult {
	var buf Buffer
	if schemaViolations := schemaBoundary(gitApplyResultSchema, raw); len(schemaViolations) > 0 {
		buf.AddAll(schemaViolations)
		return GitApplyVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	var r patchset.GitApplyResult
	if err := jsonUnmarshal(raw, &r); err != nil {
		buf.Add("SCHEMA", "", err.Error())
		return GitApplyVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	// GA1: git_apply_schema_version present and compatible.
	if !CompatibleSchemaVersion(r.GitApplySchemaVersion, patchset.GitApplySchemaVersion) {
		buf.Add("GA1", "git_apply_schema_version", fmt.Sprintf("unsupported git_apply_schema_version %q", r.GitApplySchemaVersion))
	}

	// GA2: branch.name non-empty.
	if r.Branch.Name == "" {
		buf.Add("GA2", "branch.name", "branch.name is empty")
	}

	// GA3: changed_files sorted strictly by path; GA4: path safety; GA5:
	// hash format.
	for i, cf := range r.ChangedFiles {
		path := fmt.Sprintf("changed_files[%d]", i)
		if i > 0 && r.ChangedFiles[i-1].Path >= cf.Path {
			buf.Add("GA3", path+".path", "changed_files not strictly sorted by path")
		}
		if !PathSafe(cf.Path) {
			buf.Add("GA4", path+".path", "path fails path-safety rule")
		}
		if cf.ContentHash != nil && !canon.IsValidHash(*cf.ContentHash) {
			buf.Add("GA5", path+".content_hash", "malformed ContentHash")
		}
		// GA6: delete entries carry a null content_hash.
		if cf.Op == patchset.OpDelete && cf.ContentHash != nil {
			buf.Add("GA6", path+".content_hash", "delete entry must not have a content_hash")
		}
	}

	// GA7: commit, when present, has a non-empty sha and message.
	if r.Commit != nil {
		if r.Commit.SHA == "" {
			buf.Add("GA7", "commit.sha", "commit.sha is empty")
		}
		if r.Commit.Message == "" {
			buf.Add("GA7", "commit.message", "commit.message is empty")
		}
	}

	// GA8: operation_results sorted by path, reusing APPLY_SPEC's shape.
	for i, or := range r.OperationResults {
		path := fmt.Sprintf("operation_results[%d]", i)
		if i > 0 && r.OperationResults[i-1].Path >= or.Path {
			buf.Add("GA8", path+".path", "operation_results not strictly sorted by path")
		}
		if or.BeforeHash != nil && !canon.IsValidHash(*or.BeforeHash) {
			buf.Add("GA8", path+".before_hash", "malformed ContentHash")
		}
		if or.AfterHash != nil && !canon.IsValidHash(*or.AfterHash) {
			buf.Add("GA8", path+".after_hash", "malformed ContentHash")
		}
	}

	// GA9: summary.total_operations matches len(operation_results).
	if r.Summary.TotalOperations != len(r.OperationResults) {
		buf.Add("GA9", "summary.total_operations", "total_operations does not match len(operation_results)")
	}

	// GA10: round-trip canonicity.
	if tree, err := canon.ParseTree(raw); err != nil || !RoundTripsCanonically(tree) {
		buf.Add("GA10", "", "git apply result does not round-trip canonically")
	}

	return GitApplyVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

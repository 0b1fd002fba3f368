package verify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/canon"
	"intentforge/internal/patchset"
	"intentforge/internal/verify"
)

func validGitApplyResult() patchset.GitApplyResult {
	return patchset.GitApplyResult{
		GitApplySchemaVersion: patchset.GitApplySchemaVersion,
		Outcome:               patchset.Success,
		TargetRoot:            "/tmp/repo",
		PatchSource:           patchset.PatchSource{ProposalID: "bundle_0000000000000000", ProposalHash: "sha256:" + repeatHex("a")},
		Branch:                patchset.Branch{Name: "apply/run-1", Created: true},
		GitState:              patchset.GitState{CleanBefore: true, CleanAfter: true, HeadBefore: "abc", HeadAfter: "def"},
		ChangedFiles: []patchset.ChangedFile{
			{Op: patchset.OpCreate, Path: "a.txt", ContentHash: hashPtr("b")},
			{Op: patchset.OpDelete, Path: "z.txt"},
		},
		OperationResults: []patchset.OperationResult{
			{Op: patchset.OpCreate, Path: "a.txt", Status: patchset.StatusSuccess, AfterHash: hashPtr("b"), BytesWritten: 1},
			{Op: patchset.OpDelete, Path: "z.txt", Status: patchset.StatusSuccess},
		},
		Summary: patchset.Summary{TotalOperations: 2, Succeeded: 2},
	}
}

func TestVerifyGitApply_ValidPasses(t *testing.T) {
	r := validGitApplyResult()
	raw, err := canon.CanonicalizeFile(r)
	require.NoError(t, err)

	res := verify.VerifyGitApply(raw)
	assert.True(t, res.OK, "violations: %+v", res.Violations)
}

func TestVerifyGitApply_EmptyBranchNameViolatesGA2(t *testing.T) {
	r := validGitApplyResult()
	r.Branch.Name = ""
	raw, err := canon.CanonicalizeFile(r)
	require.NoError(t, err)

	res := verify.VerifyGitApply(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "GA2")
}

func TestVerifyGitApply_DeleteWithContentHashViolatesGA6(t *testing.T) {
	r := validGitApplyResult()
	r.ChangedFiles[1].ContentHash = hashPtr("c")
	raw, err := canon.CanonicalizeFile(r)
	require.NoError(t, err)

	res := verify.VerifyGitApply(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "GA6")
}

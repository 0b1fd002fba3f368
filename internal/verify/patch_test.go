package verify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/canon"
	"intentforge/internal/patchset"
	"intentforge/internal/verify"
)

func strPtr(s string) *string { return &s }

func validPatchSet() patchset.PatchSet {
	content := "hello"
	return patchset.PatchSet{
		PatchSchemaVersion: patchset.PatchSchemaVersion,
		SourceProposalID:   "bundle_0000000000000000",
		SourceProposalHash: "sha256:" + repeatHex("a"),
		Operations: []patchset.Operation{
			{Op: patchset.OpCreate, Path: "a.txt", Content: &content, SizeBytes: len(content), Order: 0},
		},
		TotalBytes: len(content),
	}
}

func repeatHex(ch string) string {
	out := ""
	for i := 0; i < 64; i++ {
		out += ch
	}
	return out
}

func TestVerifyPatch_ValidPasses(t *testing.T) {
	ps := validPatchSet()
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.True(t, res.OK, "violations: %+v", res.Violations)
}

func TestVerifyPatch_DuplicatePathViolatesPS5(t *testing.T) {
	ps := validPatchSet()
	ps.Operations = append(ps.Operations, patchset.Operation{
		Op: patchset.OpCreate, Path: "a.txt", Content: strPtr("x"), SizeBytes: 1, Order: 1,
	})
	ps.TotalBytes += 1
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "PS5")
}

func TestVerifyPatch_DeleteWithContentViolatesPS8(t *testing.T) {
	ps := validPatchSet()
	ps.Operations = []patchset.Operation{
		{Op: patchset.OpDelete, Path: "a.txt", Content: strPtr("nope"), SizeBytes: 0, Order: 0},
	}
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "PS8")
}

func TestVerifyPatch_SizeMismatchViolatesPS7(t *testing.T) {
	ps := validPatchSet()
	ps.Operations[0].SizeBytes = 999
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "PS7")
}

func TestVerifyPatch_TotalBytesMismatchViolatesPS9(t *testing.T) {
	ps := validPatchSet()
	ps.TotalBytes = 0
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "PS9")
}

func TestVerifyPatch_UnsortedOperationsViolatesPS4(t *testing.T) {
	ps := validPatchSet()
	ps.Operations = append(ps.Operations, patchset.Operation{
		Op: patchset.OpCreate, Path: "b.txt", Content: strPtr("x"), SizeBytes: 1, Order: 0,
	})
	// Now reorder raw JSON so b.txt precedes a.txt at the same order, which
	// the verifier treats as a sortedness violation.
	ps.Operations[0], ps.Operations[1] = ps.Operations[1], ps.Operations[0]
	ps.TotalBytes += 1
	raw, err := canon.CanonicalizeFile(ps)
	require.NoError(t, err)

	res := verify.VerifyPatch(raw)
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "PS4")
}

func assertHasRule(t *testing.T, vs []verify.Violation, ruleID string) {
	t.Helper()
	for _, v := range vs {
		if v.RuleID == ruleID {
			return
		}
	}
	t.Fatalf("expected rule %s among violations, got %+v", ruleID, vs)
}

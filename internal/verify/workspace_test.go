package verify_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/verify"
)

func TestVerifyWorkspace_EmptyExistingDirPasses(t *testing.T) {
	dir := t.TempDir()
	res := verify.VerifyWorkspace(dir, verify.WorkspaceOptions{MustExist: false, MustBeEmpty: true, MustNotBeFile: true})
	assert.True(t, res.OK, "violations: %+v", res.Violations)
}

func TestVerifyWorkspace_NonEmptyDirViolatesWS7(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o644))

	res := verify.VerifyWorkspace(dir, verify.WorkspaceOptions{MustExist: false, MustBeEmpty: true, MustNotBeFile: true})
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "WS7")
}

func TestVerifyWorkspace_TraversalViolatesWS2(t *testing.T) {
	res := verify.VerifyWorkspace("/tmp/foo/../../etc", verify.WorkspaceOptions{})
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "WS2")
}

func TestVerifyWorkspace_MustExistButAbsentViolatesWS5(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	res := verify.VerifyWorkspace(dir, verify.WorkspaceOptions{MustExist: true})
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "WS5")
}

func TestVerifyWorkspace_FileInsteadOfDirViolatesWS6(t *testing.T) {
	f := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	res := verify.VerifyWorkspace(f, verify.WorkspaceOptions{MustExist: true})
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "WS6")
}

func TestVerifyWorkspace_ResolvesToAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	res := verify.VerifyWorkspace(dir, verify.WorkspaceOptions{})
	assert.True(t, filepath.IsAbs(res.ResolvedPath))
}

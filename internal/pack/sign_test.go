package pack_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/config"
	"intentforge/internal/pack"
)

func TestSignAndVerifySignature_RoundTrips(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"alpha"})
	outDir := filepath.Join(t.TempDir(), "signed")
	export := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, export.OK, "error: %s", export.Error)

	key := []byte("test-signing-key-0123456789")
	require.NoError(t, pack.Sign(outDir, key, "test-key"))

	_, err := os.Stat(filepath.Join(outDir, "meta.json"))
	require.NoError(t, err)

	assert.NoError(t, pack.VerifySignature(outDir, key))
}

func TestVerifySignature_TamperedFileFails(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"alpha"})
	outDir := filepath.Join(t.TempDir(), "signed2")
	export := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, export.OK)

	key := []byte("test-signing-key-0123456789")
	require.NoError(t, pack.Sign(outDir, key, "test-key"))

	policyPath := filepath.Join(outDir, "policy.json")
	data, err := os.ReadFile(policyPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(policyPath, append(data, '\n'), 0o644))

	assert.Error(t, pack.VerifySignature(outDir, key))
}

func TestVerifySignature_WrongKeyFails(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"alpha"})
	outDir := filepath.Join(t.TempDir(), "signed3")
	export := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, export.OK)

	require.NoError(t, pack.Sign(outDir, []byte("key-one-0123456789"), "k1"))
	assert.Error(t, pack.VerifySignature(outDir, []byte("key-two-0123456789")))
}

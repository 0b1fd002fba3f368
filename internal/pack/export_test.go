package pack_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/config"
	"intentforge/internal/pack"
)

func writeIntent(t *testing.T, goal string, constraints []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intent.json")
	obj := map[string]any{"goal": goal}
	if constraints != nil {
		obj["constraints"] = constraints
	}
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExport_PlanOnlySucceedsAndSelfVerifies(t *testing.T) {
	intentPath := writeIntent(t, "Build a user authentication system", []string{"Must use JWT", "Session timeout 24h"})
	outDir := filepath.Join(t.TempDir(), "s1")

	res := pack.Export(pack.ExportOptions{
		IntentPath: intentPath,
		OutDir:     outDir,
		Policy:     config.PolicyDefault,
		Mode:       pack.ModePlan,
	})

	require.True(t, res.OK, "error: %s", res.Error)
	assert.Equal(t, []string{"bundle.json", "ledger.jsonl", "patch.json", "policy.json", "run.json"}, res.FilesWritten)
	require.NotNil(t, res.PackVerify)
	assert.True(t, res.PackVerify.OK, "violations: %+v", res.PackVerify.Violations)
}

func TestExport_Determinism(t *testing.T) {
	intentPath := writeIntent(t, "Build a user authentication system", []string{"Must use JWT", "Session timeout 24h"})

	out1 := filepath.Join(t.TempDir(), "d1")
	out2 := filepath.Join(t.TempDir(), "d2")

	res1 := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: out1, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	res2 := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: out2, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, res1.OK)
	require.True(t, res2.OK)

	for _, name := range []string{"bundle.json", "patch.json", "policy.json"} {
		b1, err := os.ReadFile(filepath.Join(out1, name))
		require.NoError(t, err)
		b2, err := os.ReadFile(filepath.Join(out2, name))
		require.NoError(t, err)
		assert.Equal(t, string(b1), string(b2), "file %s should be byte-identical across runs", name)
	}
}

func TestExport_NonEmptyOutDirRefused(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"alpha"})
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "existing.txt"), []byte("x"), 0o644))

	res := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "non-empty")
}

func TestExport_ContradictoryConstraintsStillProducesBundle(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"Must be synchronous", "Must be asynchronous"})
	outDir := filepath.Join(t.TempDir(), "s5")

	res := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, res.OK, "error: %s", res.Error)

	bundleRaw, err := os.ReadFile(filepath.Join(outDir, "bundle.json"))
	require.NoError(t, err)
	assert.Contains(t, string(bundleRaw), `"contradiction_count"`)
}

func TestExport_EmptyGoalRefuses(t *testing.T) {
	intentPath := writeIntent(t, "   ", nil)
	outDir := filepath.Join(t.TempDir(), "s-empty")

	res := pack.Export(pack.ExportOptions{IntentPath: intentPath, OutDir: outDir, Policy: config.PolicyDefault, Mode: pack.ModePlan})
	require.True(t, res.OK, "error: %s", res.Error)
	assert.Equal(t, "REFUSE", res.RunOutcome)

	names := map[string]bool{}
	for _, n := range res.FilesWritten {
		names[n] = true
	}
	assert.True(t, names["run.json"])
	assert.True(t, names["ledger.jsonl"])
	assert.False(t, names["bundle.json"])
	assert.False(t, names["patch.json"])
}

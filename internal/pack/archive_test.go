package pack_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/canon"
	"intentforge/internal/config"
	"intentforge/internal/pack"
)

func TestExport_ArchiveProducesHashedTarZst(t *testing.T) {
	intentPath := writeIntent(t, "Build an API", []string{"alpha"})
	outDir := filepath.Join(t.TempDir(), "archived")

	res := pack.Export(pack.ExportOptions{
		IntentPath: intentPath,
		OutDir:     outDir,
		Policy:     config.PolicyDefault,
		Mode:       pack.ModePlan,
		Archive:    true,
	})
	require.True(t, res.OK, "error: %s", res.Error)
	require.NotEmpty(t, res.ArchiveSHA256)
	assert.True(t, canon.IsValidHash(res.ArchiveSHA256))

	archivePath := outDir + ".tar.zst"
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, res.ArchiveSHA256, canon.HashBytes(data))
}

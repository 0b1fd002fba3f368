package pack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"intentforge/internal/pack"
)

func TestKnownFiles_RecognizesManifestSet(t *testing.T) {
	for _, f := range append(append([]string{}, pack.RequiredFiles...), pack.OptionalFiles...) {
		assert.True(t, pack.KnownFiles(f), "expected %s to be known", f)
	}
	assert.False(t, pack.KnownFiles("unexpected.json"))
}

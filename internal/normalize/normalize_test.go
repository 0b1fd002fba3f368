package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/normalize"
)

func TestNormalizeString_CollapsesWhitespaceAndTrims(t *testing.T) {
	got := normalize.NormalizeString("  Build   a\tservice\n\n here  ")
	assert.Equal(t, "Build a service here", got)
}

func TestNormalizeString_Idempotent(t *testing.T) {
	s := "  Build   a\tservice  "
	once := normalize.NormalizeString(s)
	twice := normalize.NormalizeString(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeString_PreservesZeroWidthChars(t *testing.T) {
	s := "abc​def"
	got := normalize.NormalizeString(s)
	assert.Contains(t, got, "​")
}

func TestNormalizeConstraints_DedupSortsAndDropsEmpty(t *testing.T) {
	in := []string{"  Must use JWT ", "Session timeout 24h", "must use jwt", "Must use JWT", "   "}
	got := normalize.NormalizeConstraints(in)
	assert.Equal(t, []string{"Must use JWT", "Session timeout 24h", "must use jwt"}, got)
}

func TestNormalizeConstraints_PermutationInvariant(t *testing.T) {
	a := []string{"alpha", "beta", "gamma"}
	b := []string{"gamma", "alpha", "beta"}
	assert.Equal(t, normalize.NormalizeConstraints(a), normalize.NormalizeConstraints(b))
}

func TestNormalizeContext_RecursiveAndPreservesArrayOrder(t *testing.T) {
	ctx := map[string]any{
		"b": 1,
		"a": map[string]any{"z": 1, "y": 2},
		"c": []any{3, 1, 2},
	}
	got := normalize.NormalizeContext(ctx)
	assert.Equal(t, []any{3, 1, 2}, got["c"])
	nested, ok := got["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, nested["z"])
}

func TestNormalizeIntent_EmptyGoalFails(t *testing.T) {
	_, err := normalize.NormalizeIntent(normalize.Intent{Goal: "   "})
	require.ErrorIs(t, err, normalize.ErrEmptyGoal)
}

func TestNormalizeIntent_Idempotent(t *testing.T) {
	i := normalize.Intent{
		Goal:        "  Build an API  ",
		Constraints: []string{"b", "a", "a"},
		Context:     map[string]any{"z": 1, "a": 2},
	}
	n1, err := normalize.NormalizeIntent(i)
	require.NoError(t, err)

	n2, err := normalize.NormalizeIntent(normalize.Intent{
		Goal:        n1.Goal,
		Constraints: n1.Constraints,
		Context:     n1.Context,
	})
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
}

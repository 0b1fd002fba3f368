package bundle

import (
	"fmt"
	"strings"

	"intentforge/internal/canon"
)

// contentID computes a content-derived ID: "prefix" + the 16 leading hex
// characters of the SHA-256 of v's canonical encoding with its "id" field
// omitted, per §4.4 step 6. v must marshal to a JSON object.
func contentID(prefix string, v any) (string, error) {
	tree, err := canon.ToTree(v)
	if err != nil {
		return "", fmt.Errorf("contentID: %w", err)
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return "", fmt.Errorf("contentID: value is not a JSON object")
	}
	delete(obj, "id")
	b, err := canon.Canonicalize(obj)
	if err != nil {
		return "", fmt.Errorf("contentID: %w", err)
	}
	full := canon.HashBytes(b)
	hexPart := strings.TrimPrefix(full, "sha256:")
	return prefix + hexPart[:16], nil
}

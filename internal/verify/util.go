package verify

import "encoding/json"

// jsonUnmarshal decodes raw into v using encoding/json's default number
// representation (float64), matching what github.com/santhosh-tekuri/
// jsonschema/v5 expects for its own type checks.
func jsonUnmarshal(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

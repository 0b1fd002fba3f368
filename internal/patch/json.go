package patch

import "encoding/json"

// jsonDecode unmarshals raw into v using plain float64 number decoding;
// PATCH_SPEC has already confirmed raw's structural validity by this point.
func jsonDecode(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

package gitapply

import "encoding/json"

// jsonDecode unmarshals raw into v; PATCH_SPEC has already confirmed raw's
// structural validity by the time this is called.
func jsonDecode(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

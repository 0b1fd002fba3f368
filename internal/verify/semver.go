package verify

import "github.com/Masterminds/semver/v3"

// CompatibleSchemaVersion reports whether got is usable where expected is
// required: exact equality, or same-major semver compatibility when both
// parse as valid semver (schema_version literal/compatibility checks,
// grounded on tsukumogami-tsuku / Mindburn-Labs-helm's semver.NewVersion
// usage pattern). Falls back to exact string equality for non-semver
// literals.
func CompatibleSchemaVersion(got, expected string) bool {
	if got == expected {
		return true
	}
	gv, err1 := semver.NewVersion(got)
	ev, err2 := semver.NewVersion(expected)
	if err1 != nil || err2 != nil {
		return false
	}
	return gv.Major() == ev.Major()
}

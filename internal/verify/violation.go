// Package verify implements the stateless spec verifiers (C5): pure,
// in-memory validators for bundles, patch sets, apply results, git-apply
// results, ledger entries, and model I/O records. Every verifier accepts
// unknown-shaped input, never panics, and returns a tagged {ok} |
// {ok:false, violations} result with violations sorted by (rule_id, path).
// The directory-walking composite Pack Verifier (C10) builds on these but
// lives in internal/pack, since it performs filesystem I/O these verifiers
// deliberately avoid.
package verify

import "intentforge/internal/violation"

// Violation, Outcome, and Buffer are re-exported from internal/violation so
// callers of this package never need to import it directly. The types are
// defined in internal/violation (not here) so internal/patch and
// internal/gitapply can embed Violations lists without an import cycle
// through internal/verify.
type (
	Violation = violation.Violation
	Outcome   = violation.Outcome
	Buffer    = violation.Buffer
)

// SortViolations sorts in place by (rule_id asc, path asc).
func SortViolations(vs []Violation) { violation.Sort(vs) }

// PathSafe reports whether p satisfies the relative-path-safety rule
// shared by every *_SPEC.
func PathSafe(p string) bool { return violation.PathSafe(p) }

// RoundTripsCanonically reports whether v's canonical encoding is a fixed
// point of canonicalize(parse(canonicalize(x))).
func RoundTripsCanonically(v any) bool { return violation.RoundTripsCanonically(v) }

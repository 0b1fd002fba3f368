// Package ledger implements the Ledger Writer (C8): an append-only log of
// one canonical JSON line per pipeline run.
package ledger

// SchemaVersion is the literal LEDGER_SPEC schema version embedded in
// every entry for forward compatibility, even though the wire shape below
// has no explicit version field in spec §3. It is added as a supplemented
// field rather than leaving LedgerEntry the one versionless artifact in the
// system.
const SchemaVersion = "1.0.0"

// ResultKind is one of CLARIFY/REFUSE/BUNDLE.
type ResultKind string

const (
	ResultClarify ResultKind = "CLARIFY"
	ResultRefuse  ResultKind = "REFUSE"
	ResultBundle  ResultKind = "BUNDLE"
)

// Mode is one of plan-only/execute-sandbox.
type Mode string

const (
	ModePlanOnly       Mode = "plan-only"
	ModeExecuteSandbox Mode = "execute-sandbox"
)

// Policy is one of strict/default/dev.
type Policy string

const (
	PolicyStrict  Policy = "strict"
	PolicyDefault Policy = "default"
	PolicyDev     Policy = "dev"
)

// Entry is one line of ledger.jsonl (§3 LedgerEntry).
type Entry struct {
	LedgerSchemaVersion string     `json:"ledger_schema_version"`
	RunID               string     `json:"run_id"`
	Timestamp           string     `json:"timestamp"`
	IntentSHA256        string     `json:"intent_sha256"`
	BundleSHA256        *string    `json:"bundle_sha256"`
	ResultKind          ResultKind `json:"result_kind"`
	Accepted            bool       `json:"accepted"`
	Mode                Mode       `json:"mode"`
	Policy              Policy     `json:"policy"`
}

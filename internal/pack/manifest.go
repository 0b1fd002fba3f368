// Package pack implements the Pack Exporter (C9) and the composite Pack
// Verifier (C10): assembling a PACK_SPEC-compliant directory from a
// kernel transform plus patch/ledger/policy artifacts, and walking a pack
// directory end-to-end to check manifest shape, reference integrity, and
// per-artifact deep validation (§4.9, §4.5). The optional Pack Signer
// (C12) and Pack Archiver (C13) of SPEC_FULL.md also live here.
package pack

// File names PACK_SPEC (§3) recognizes. Any other name in a pack
// directory is a PK2 violation.
const (
	FileRun      = "run.json"
	FileBundle   = "bundle.json"
	FilePatch    = "patch.json"
	FileEvidence = "evidence.json"
	FileLedger   = "ledger.jsonl"
	FilePolicy   = "policy.json"
	FileModelIO  = "model_io.json"
	FileRunner   = "runner.json"
	FileMeta     = "meta.json"
)

// RequiredFiles is the PACK_SPEC manifest's mandatory file set.
var RequiredFiles = []string{FileRun, FileBundle}

// OptionalFiles is the PACK_SPEC manifest's permitted-but-not-mandatory
// file set.
var OptionalFiles = []string{FilePatch, FileEvidence, FileLedger, FilePolicy, FileModelIO, FileRunner, FileMeta}

// KnownFiles reports whether name is any recognized manifest file.
func KnownFiles(name string) bool {
	for _, f := range RequiredFiles {
		if f == name {
			return true
		}
	}
	for _, f := range OptionalFiles {
		if f == name {
			return true
		}
	}
	return false
}

// RunSchemaVersion is the literal schema version run.json carries.
const RunSchemaVersion = "1.0.0"

// ArtifactRef is a named pointer to another file's content hash, used by
// run.json for PACK_SPEC's reference-integrity checks (PK5).
type ArtifactRef struct {
	SHA256 string `json:"sha256"`
}

// RunManifest is the contents of run.json: the pack's own index of what
// kernel outcome this run produced and which sibling files back it,
// content-hash-addressed so the Pack Verifier can confirm every reference
// actually matches the referenced file's bytes.
type RunManifest struct {
	RunSchemaVersion string       `json:"run_schema_version"`
	RunID            string       `json:"run_id"`
	Timestamp        string       `json:"timestamp"`
	Mode             string       `json:"mode"`
	PolicyName       string       `json:"policy"`
	ResultKind       string       `json:"result_kind"`
	Accepted         bool         `json:"accepted"`
	RefuseReason     string       `json:"refuse_reason,omitempty"`
	Intent           ArtifactRef  `json:"intent"`
	Bundle           *ArtifactRef `json:"bundle,omitempty"`
	Patch            *ArtifactRef `json:"patch,omitempty"`
	ModelIO          *ArtifactRef `json:"model_io,omitempty"`
	PolicyFile       *ArtifactRef `json:"policy_file,omitempty"`
	Evidence         *ArtifactRef `json:"evidence,omitempty"`
}

// Meta is the contents of the optional meta.json (§3, SPEC_FULL.md "Pack
// Signing"): a detached JWS signature over the sorted file-hash manifest.
type Meta struct {
	SchemaVersion string            `json:"schema_version"`
	SignerKeyID   string            `json:"signer_key_id"`
	Signature     string            `json:"signature"`
	SignedFiles   map[string]string `json:"signed_files"`
}

// MetaSchemaVersion is the literal schema version meta.json carries.
const MetaSchemaVersion = "1.0.0"

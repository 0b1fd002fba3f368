package verify

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaBoundary compiles and runs a JSON Schema check over raw bytes
// before any hand-written structural rule runs, per SPEC_FULL.md's
// "schema-boundary parsing" wiring of github.com/santhosh-tekuri/jsonschema.
// A schema failure is reported under rule_id "SCHEMA" and the caller should
// stop: later rules assume a shape the schema already guarantees.
func schemaBoundary(schemaSrc string, raw []byte) []Violation {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader([]byte(schemaSrc))); err != nil {
		return []Violation{{RuleID: "SCHEMA", Message: fmt.Sprintf("internal schema error: %v", err)}}
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return []Violation{{RuleID: "SCHEMA", Message: fmt.Sprintf("internal schema error: %v", err)}}
	}
	var v any
	if err := jsonUnmarshal(raw, &v); err != nil {
		return []Violation{{RuleID: "SCHEMA", Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := sch.Validate(v); err != nil {
		return []Violation{{RuleID: "SCHEMA", Message: err.Error()}}
	}
	return nil
}

const bundleSchema = `{
  "type": "object",
  "required": ["schema_version", "id", "root_node", "terminal_nodes", "outputs", "unresolved_questions", "stats"],
  "properties": {
    "schema_version": {"type": "string"},
    "id": {"type": "string"},
    "root_node": {"type": "object"},
    "terminal_nodes": {"type": "array"},
    "outputs": {"type": "array"},
    "unresolved_questions": {"type": "array"},
    "stats": {"type": "object"}
  }
}`

const patchSchema = `{
  "type": "object",
  "required": ["patch_schema_version", "source_proposal_id", "source_proposal_hash", "operations", "total_bytes"],
  "properties": {
    "patch_schema_version": {"type": "string"},
    "source_proposal_id": {"type": "string"},
    "source_proposal_hash": {"type": "string"},
    "operations": {"type": "array"},
    "total_bytes": {"type": "integer"}
  }
}`

const applyResultSchema = `{
  "type": "object",
  "required": ["apply_schema_version", "outcome", "dry_run", "target_root", "patch_source", "operation_results", "summary", "violations"],
  "properties": {
    "apply_schema_version": {"type": "string"},
    "outcome": {"enum": ["SUCCESS", "PARTIAL", "FAILED", "REFUSED"]},
    "dry_run": {"type": "boolean"},
    "target_root": {"type": "string"},
    "patch_source": {"type": "object"},
    "operation_results": {"type": "array"},
    "summary": {"type": "object"},
    "violations": {"type": "array"}
  }
}`

const gitApplyResultSchema = `{
  "type": "object",
  "required": ["git_apply_schema_version", "outcome", "dry_run", "target_root", "patch_source", "operation_results", "summary", "violations", "branch", "git_state", "changed_files"],
  "properties": {
    "git_apply_schema_version": {"type": "string"},
    "outcome": {"enum": ["SUCCESS", "PARTIAL", "FAILED", "REFUSED"]},
    "branch": {"type": "object"},
    "git_state": {"type": "object"},
    "changed_files": {"type": "array"}
  }
}`

const ledgerEntrySchema = `{
  "type": "object",
  "required": ["ledger_schema_version", "run_id", "timestamp", "intent_sha256", "bundle_sha256", "result_kind", "accepted", "mode", "policy"],
  "properties": {
    "ledger_schema_version": {"type": "string"},
    "run_id": {"type": "string"},
    "timestamp": {"type": "string"},
    "intent_sha256": {"type": "string"},
    "bundle_sha256": {"type": ["string", "null"]},
    "result_kind": {"enum": ["CLARIFY", "REFUSE", "BUNDLE"]},
    "accepted": {"type": "boolean"},
    "mode": {"enum": ["plan-only", "execute-sandbox"]},
    "policy": {"enum": ["strict", "default", "dev"]}
  }
}`

const modelIOSchema = `{
  "type": "object",
  "required": ["model_io_schema_version", "interactions"],
  "properties": {
    "model_io_schema_version": {"type": "string"},
    "interactions": {"type": "array"}
  }
}`

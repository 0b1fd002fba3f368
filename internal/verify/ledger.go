package verify

import (
	"bytes"
	"fmt"
	"time"

	"intentforge/internal/canon"
	"intentforge/internal/ledger"
)

// LedgerVerifyResult is LEDGER_SPEC's verify() result.
type LedgerVerifyResult struct {
	Outcome
}

// VerifyLedger validates a whole ledger.jsonl file's bytes against
// LEDGER_SPEC (LD1-LD4): each line independently valid, timestamps
// non-decreasing across the file, run_ids unique, hash fields well-formed.
func VerifyLedger(raw []byte) LedgerVerifyResult {
	var buf Buffer

	lines := bytes.Split(bytes.TrimRight(raw, "\n"), []byte("\n"))
	if len(raw) == 0 {
		return LedgerVerifyResult{Outcome{OK: true}}
	}

	seenRunIDs := make(map[string]int, len(lines))
	var lastTS time.Time
	haveLastTS := false

	for i, line := range lines {
		path := fmt.Sprintf("lines[%d]", i)
		if len(line) == 0 {
			buf.Add("LD1", path, "empty line")
			continue
		}

		// LD1: each line is a complete valid JSON object with a compatible
		// schema version and enum values.
		if schemaViolations := schemaBoundary(ledgerEntrySchema, line); len(schemaViolations) > 0 {
			for _, v := range schemaViolations {
				buf.Add("LD1", path+"."+v.Path, v.Message)
			}
			continue
		}

		var e ledger.Entry
		if err := jsonUnmarshal(line, &e); err != nil {
			buf.Add("LD1", path, err.Error())
			continue
		}

		if !CompatibleSchemaVersion(e.LedgerSchemaVersion, ledger.SchemaVersion) {
			buf.Add("LD1", path+".ledger_schema_version", fmt.Sprintf("unsupported ledger_schema_version %q", e.LedgerSchemaVersion))
		}
		switch e.ResultKind {
		case ledger.ResultClarify, ledger.ResultRefuse, ledger.ResultBundle:
		default:
			buf.Add("LD1", path+".result_kind", fmt.Sprintf("unknown result_kind %q", e.ResultKind))
		}
		switch e.Mode {
		case ledger.ModePlanOnly, ledger.ModeExecuteSandbox:
		default:
			buf.Add("LD1", path+".mode", fmt.Sprintf("unknown mode %q", e.Mode))
		}
		switch e.Policy {
		case ledger.PolicyStrict, ledger.PolicyDefault, ledger.PolicyDev:
		default:
			buf.Add("LD1", path+".policy", fmt.Sprintf("unknown policy %q", e.Policy))
		}

		// LD2: timestamps non-decreasing across the file.
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			buf.Add("LD1", path+".timestamp", "timestamp is not a valid ISO-8601/RFC3339 instant")
		} else {
			if haveLastTS && ts.Before(lastTS) {
				buf.Add("LD2", path+".timestamp", "timestamps are not non-decreasing across the file")
			}
			lastTS = ts
			haveLastTS = true
		}

		// LD3: run_id unique within the file.
		if e.RunID == "" {
			buf.Add("LD3", path+".run_id", "run_id is empty")
		} else if first, ok := seenRunIDs[e.RunID]; ok {
			buf.Add("LD3", path+".run_id", fmt.Sprintf("duplicate run_id, first seen at lines[%d]", first))
		} else {
			seenRunIDs[e.RunID] = i
		}

		// LD4: hash fields well-formed; bundle_sha256 null iff result_kind
		// != BUNDLE.
		if !canon.IsValidHash(e.IntentSHA256) {
			buf.Add("LD4", path+".intent_sha256", "malformed ContentHash")
		}
		if e.BundleSHA256 != nil && !canon.IsValidHash(*e.BundleSHA256) {
			buf.Add("LD4", path+".bundle_sha256", "malformed ContentHash")
		}
		if e.ResultKind == ledger.ResultBundle && e.BundleSHA256 == nil {
			buf.Add("LD4", path+".bundle_sha256", "bundle_sha256 must be non-null when result_kind is BUNDLE")
		}
		if e.ResultKind != ledger.ResultBundle && e.BundleSHA256 != nil {
			buf.Add("LD4", path+".bundle_sha256", "bundle_sha256 must be null when result_kind is not BUNDLE")
		}
	}

	return LedgerVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

package verify

import (
	"fmt"
	"time"

	"intentforge/internal/canon"
	"intentforge/internal/modelio"
)

// ModelIOVerifyResult is MODEL_IO_SPEC's verify() result.
type ModelIOVerifyResult struct {
	Outcome
}

// VerifyModelIO validates raw model_io.json bytes against MODEL_IO_SPEC
// (MI1-MI12).
func VerifyModelIO(raw []byte) ModelIOVerifyResult {
	var buf Buffer
	if schemaViolations := schemaBoundary(modelIOSchema, raw); len(schemaViolations) > 0 {
		buf.AddAll(schemaViolations)
		return ModelIOVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	var r modelio.Record
	if err := jsonUnmarshal(raw, &r); err != nil {
		buf.Add("SCHEMA", "", err.Error())
		return ModelIOVerifyResult{Outcome{OK: false, Violations: buf.Sorted()}}
	}

	// MI1: model_io_schema_version present and compatible.
	if !CompatibleSchemaVersion(r.SchemaVersion, modelio.SchemaVersion) {
		buf.Add("MI1", "model_io_schema_version", fmt.Sprintf("unsupported model_io_schema_version %q", r.SchemaVersion))
	}

	// MI2: run_id non-empty.
	if r.RunID == "" {
		buf.Add("MI2", "run_id", "run_id is empty")
	}

	// MI3: interaction ids unique.
	seen := make(map[string]int, len(r.Interactions))
	var lastTS time.Time
	haveLastTS := false
	for i, in := range r.Interactions {
		path := fmt.Sprintf("interactions[%d]", i)

		if in.ID == "" {
			buf.Add("MI3", path+".id", "interaction id is empty")
		} else if first, ok := seen[in.ID]; ok {
			buf.Add("MI3", path+".id", fmt.Sprintf("duplicate interaction id, first seen at interactions[%d]", first))
		} else {
			seen[in.ID] = i
		}

		// MI4: total interaction count within the configured ceiling.
		// (checked once below, outside the loop, but documented here
		// since it is driven by len(Interactions))

		// MI5: role enum valid.
		switch in.Role {
		case modelio.RoleRequest, modelio.RoleResponse:
		default:
			buf.Add("MI5", path+".role", fmt.Sprintf("unknown role %q", in.Role))
		}

		// MI6: model non-empty.
		if in.Model == "" {
			buf.Add("MI6", path+".model", "model is empty")
		}

		// MI7: timestamp is a parseable RFC3339 instant.
		ts, err := time.Parse(time.RFC3339, in.Timestamp)
		if err != nil {
			buf.Add("MI7", path+".timestamp", "timestamp is not a valid ISO-8601/RFC3339 instant")
		} else {
			// MI8: timestamps non-decreasing across the interaction list.
			if haveLastTS && ts.Before(lastTS) {
				buf.Add("MI8", path+".timestamp", "timestamps are not non-decreasing")
			}
			lastTS = ts
			haveLastTS = true
		}

		// MI9: hash fields, when present, match the ContentHash format.
		if in.PromptHash != "" && !canon.IsValidHash(in.PromptHash) {
			buf.Add("MI9", path+".prompt_hash", "malformed ContentHash")
		}
		if in.ResponseHash != "" && !canon.IsValidHash(in.ResponseHash) {
			buf.Add("MI9", path+".response_hash", "malformed ContentHash")
		}

		// MI10: token counts non-negative.
		if in.TokensIn < 0 {
			buf.Add("MI10", path+".tokens_in", "tokens_in is negative")
		}
		if in.TokensOut < 0 {
			buf.Add("MI10", path+".tokens_out", "tokens_out is negative")
		}
	}

	// MI4: size bound — at most modelio.MaxInteractions entries.
	if len(r.Interactions) > modelio.MaxInteractions {
		buf.Add("MI4", "interactions", fmt.Sprintf("interaction count %d exceeds the maximum of %d", len(r.Interactions), modelio.MaxInteractions))
	}

	// MI11: interaction_count cross-field consistency.
	if r.InteractionCount != len(r.Interactions) {
		buf.Add("MI11", "interaction_count", "interaction_count does not match len(interactions)")
	}

	// MI12: round-trip canonicity.
	if tree, err := canon.ParseTree(raw); err != nil || !RoundTripsCanonically(tree) {
		buf.Add("MI12", "", "model_io record does not round-trip canonically")
	}

	return ModelIOVerifyResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}}
}

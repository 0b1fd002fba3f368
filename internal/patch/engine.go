// Package patch implements the Patch Engine (C6): load patch.json from a
// pack directory, enforce PATCH_SPEC, and execute its operations against a
// target root with optional dry-run.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"intentforge/internal/canon"
	"intentforge/internal/logging"
	"intentforge/internal/patchset"
	"intentforge/internal/verify"
)

// Options controls a single patch-engine invocation.
type Options struct {
	DryRun         bool
	SkipPatchMatch bool
}

// Apply loads patch.json from packDir, verifies it, and applies its
// operations against targetRoot, per §4.6.
func Apply(packDir, targetRoot string, opts Options) patchset.ApplyResult {
	result := patchset.ApplyResult{
		ApplySchemaVersion: patchset.ApplySchemaVersion,
		DryRun:             opts.DryRun,
		TargetRoot:         targetRoot,
		OperationResults:   []patchset.OperationResult{},
	}

	raw, err := os.ReadFile(filepath.Join(packDir, "patch.json"))
	if err != nil {
		result.Outcome = patchset.Refused
		result.Error = "no patch.json"
		logging.Get(logging.CategoryPatch).Warn("apply refused: no patch.json in %s", packDir)
		return result
	}

	pv := verify.VerifyPatch(raw)
	if !pv.OK {
		result.Outcome = patchset.Refused
		result.Violations = pv.Violations
		result.Error = "patch.json fails PATCH_SPEC"
		return result
	}

	var ps patchset.PatchSet
	if err := jsonDecode(raw, &ps); err != nil {
		result.Outcome = patchset.Refused
		result.Error = fmt.Sprintf("cannot decode patch.json: %v", err)
		return result
	}
	result.PatchSource = patchset.PatchSource{
		ProposalID:   ps.SourceProposalID,
		ProposalHash: ps.SourceProposalHash,
	}

	// Target-root safety (§4.6 step 3): check the original string for
	// traversal before resolving to an absolute path.
	if strings.Contains(filepath.ToSlash(targetRoot), "..") {
		result.Outcome = patchset.Refused
		result.Violations = []verify.Violation{{RuleID: "AS5", Message: "target_root contains a traversal component"}}
		result.Error = "target_root contains '..'"
		return result
	}
	absRoot, err := filepath.Abs(targetRoot)
	if err != nil {
		result.Outcome = patchset.Refused
		result.Error = fmt.Sprintf("cannot resolve target_root: %v", err)
		return result
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		result.Outcome = patchset.Refused
		result.Error = "target_root does not exist or is not a directory"
		return result
	}

	ops := append([]patchset.Operation(nil), ps.Operations...)
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Order != ops[j].Order {
			return ops[i].Order < ops[j].Order
		}
		return ops[i].Path < ops[j].Path
	})

	opResults := make([]patchset.OperationResult, 0, len(ops))
	succeeded, failed := 0, 0
	totalBytesWritten := 0
	for _, op := range ops {
		or := applyOperation(absRoot, op, opts.DryRun)
		switch or.Status {
		case patchset.StatusSuccess:
			succeeded++
			totalBytesWritten += or.BytesWritten
		case patchset.StatusError:
			failed++
		}
		opResults = append(opResults, or)
	}
	sort.Slice(opResults, func(i, j int) bool { return opResults[i].Path < opResults[j].Path })

	result.OperationResults = opResults
	result.Summary = patchset.Summary{
		TotalOperations:   len(opResults),
		Succeeded:         succeeded,
		Skipped:           len(opResults) - succeeded - failed,
		Failed:            failed,
		TotalBytesWritten: totalBytesWritten,
	}
	result.Outcome = composeOutcome(len(opResults), succeeded, failed)
	return result
}

func composeOutcome(total, succeeded, failed int) patchset.Outcome {
	switch {
	case total == 0:
		return patchset.Success
	case succeeded == total:
		return patchset.Success
	case failed == total:
		return patchset.Failed
	default:
		return patchset.Partial
	}
}

// ApplyOperation performs (or, in dry-run, simulates) one operation against
// root. Exported so the Git Apply Engine (C7) can reuse the identical
// filesystem-write logic instead of duplicating it (§4.7 "perform the same
// filesystem write as C6").
func ApplyOperation(root string, op patchset.Operation, dryRun bool) patchset.OperationResult {
	return applyOperation(root, op, dryRun)
}

func applyOperation(root string, op patchset.Operation, dryRun bool) patchset.OperationResult {
	full := filepath.Join(root, filepath.FromSlash(op.Path))
	res := patchset.OperationResult{Op: op.Op, Path: op.Path}

	switch op.Op {
	case patchset.OpCreate:
		if _, err := os.Stat(full); err == nil {
			res.Status = patchset.StatusError
			res.Error = "path already exists"
			return res
		}
		content := contentOf(op)
		after := canon.HashBytes([]byte(content))
		if !dryRun {
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				res.Status = patchset.StatusError
				res.Error = err.Error()
				return res
			}
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				res.Status = patchset.StatusError
				res.Error = err.Error()
				return res
			}
		}
		res.Status = patchset.StatusSuccess
		res.AfterHash = &after
		res.BytesWritten = op.SizeBytes

	case patchset.OpModify:
		existing, err := os.ReadFile(full)
		if err != nil {
			res.Status = patchset.StatusError
			res.Error = "target path does not exist or is not a regular file"
			return res
		}
		before := canon.HashBytes(existing)
		res.BeforeHash = &before
		content := contentOf(op)
		after := canon.HashBytes([]byte(content))
		if !dryRun {
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				res.Status = patchset.StatusError
				res.Error = err.Error()
				return res
			}
		}
		res.Status = patchset.StatusSuccess
		res.AfterHash = &after
		res.BytesWritten = op.SizeBytes

	case patchset.OpDelete:
		existing, err := os.ReadFile(full)
		if err != nil {
			res.Status = patchset.StatusError
			res.Error = "target path does not exist"
			return res
		}
		before := canon.HashBytes(existing)
		res.BeforeHash = &before
		if !dryRun {
			if err := os.Remove(full); err != nil {
				res.Status = patchset.StatusError
				res.Error = err.Error()
				return res
			}
		}
		res.Status = patchset.StatusSuccess
		res.BytesWritten = 0
	}
	return res
}

func contentOf(op patchset.Operation) string {
	if op.Content == nil {
		return ""
	}
	return *op.Content
}

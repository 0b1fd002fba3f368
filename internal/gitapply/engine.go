package gitapply

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"intentforge/internal/patch"
	"intentforge/internal/patchset"
	"intentforge/internal/verify"
)

// Options controls a single git-apply invocation.
type Options struct {
	DryRun     bool
	AllowDirty bool
	Commit     bool
	Message    string
	BranchName string // caller override; used if run.json has no run_id
	RunID      string
}

// Apply loads patch.json from packDir and applies it against a git
// worktree rooted at targetRoot, per §4.7. Execution shells out to the
// `git` binary, matching the teacher's own established pattern
// (cmd_direct_actions.go's push/commit commands) rather than introducing a
// Go git library absent from the retrieval pack.
func Apply(packDir, targetRoot string, opts Options) patchset.GitApplyResult {
	result := patchset.GitApplyResult{
		GitApplySchemaVersion: patchset.GitApplySchemaVersion,
		DryRun:                opts.DryRun,
		TargetRoot:            targetRoot,
		OperationResults:      []patchset.OperationResult{},
		ChangedFiles:          []patchset.ChangedFile{},
	}

	// Precondition 1: target_root exists and <target_root>/.git exists.
	absRoot, err := filepath.Abs(targetRoot)
	if err != nil {
		result.Outcome = patchset.Refused
		result.Error = fmt.Sprintf("cannot resolve target_root: %v", err)
		return result
	}
	if info, err := os.Stat(filepath.Join(absRoot, ".git")); err != nil || !info.IsDir() {
		result.Outcome = patchset.Refused
		result.Error = "target_root is not a git repository"
		return result
	}

	headBefore, _ := gitOutput(absRoot, "rev-parse", "HEAD")
	cleanBefore := gitIsClean(absRoot)

	// Precondition 2: working tree clean unless allow_dirty.
	if !cleanBefore && !opts.AllowDirty {
		result.Outcome = patchset.Refused
		result.Error = "working tree has uncommitted changes"
		result.GitState = patchset.GitState{CleanBefore: cleanBefore, HeadBefore: headBefore}
		return result
	}

	// Precondition 3: load patch via PATCH_SPEC.
	raw, err := os.ReadFile(filepath.Join(packDir, "patch.json"))
	if err != nil {
		result.Outcome = patchset.Refused
		result.Error = "no patch.json"
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

	branchName, created := resolveBranch(absRoot, opts)
	result.Branch = patchset.Branch{Name: branchName, Created: created}
	if !opts.DryRun && created {
		if err := gitRun(absRoot, "checkout", "-b", branchName); err != nil {
			result.Outcome = patchset.Refused
			result.Error = fmt.Sprintf("cannot create branch %s: %v", branchName, err)
			return result
		}
	} else if !opts.DryRun {
		if err := gitRun(absRoot, "checkout", branchName); err != nil {
			result.Outcome = patchset.Refused
			result.Error = fmt.Sprintf("cannot check out branch %s: %v", branchName, err)
			return result
		}
	}

	ops := append([]patchset.Operation(nil), ps.Operations...)
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Order != ops[j].Order {
			return ops[i].Order < ops[j].Order
		}
		return ops[i].Path < ops[j].Path
	})

	opResults := make([]patchset.OperationResult, 0, len(ops))
	changed := make([]patchset.ChangedFile, 0, len(ops))
	succeeded, failed := 0, 0
	totalBytesWritten := 0
	for _, op := range ops {
		or := patch.ApplyOperation(absRoot, op, opts.DryRun)
		switch or.Status {
		case patchset.StatusSuccess:
			succeeded++
			totalBytesWritten += or.BytesWritten
			if !opts.DryRun {
				gitRun(absRoot, "add", "-A", "--", op.Path)
			}
			changed = append(changed, patchset.ChangedFile{Op: op.Op, Path: op.Path, ContentHash: or.AfterHash})
		case patchset.StatusError:
			failed++
		}
		opResults = append(opResults, or)
	}
	sort.Slice(opResults, func(i, j int) bool { return opResults[i].Path < opResults[j].Path })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })

	result.OperationResults = opResults
	result.ChangedFiles = changed
	result.Summary = patchset.Summary{
		TotalOperations:   len(opResults),
		Succeeded:         succeeded,
		Skipped:           len(opResults) - succeeded - failed,
		Failed:            failed,
		TotalBytesWritten: totalBytesWritten,
	}
	result.Outcome = composeOutcome(len(opResults), succeeded, failed)

	if !opts.DryRun && opts.Commit && result.Outcome == patchset.Success {
		msg := opts.Message
		if msg == "" {
			msg = fmt.Sprintf("Apply patch %s", ps.SourceProposalID)
		}
		if err := gitRun(absRoot, "commit", "-m", msg); err == nil {
			sha, _ := gitOutput(absRoot, "rev-parse", "HEAD")
			result.Commit = &patchset.Commit{SHA: sha, Message: msg}
		}
	}

	headAfter, _ := gitOutput(absRoot, "rev-parse", "HEAD")
	result.GitState = patchset.GitState{
		CleanBefore: cleanBefore,
		CleanAfter:  gitIsClean(absRoot),
		HeadBefore:  headBefore,
		HeadAfter:   headAfter,
	}

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

// resolveBranch picks the branch name: apply/<run_id> if a run_id is
// available to the caller (passed via opts.RunID), else the caller
// override (opts.BranchName), else apply/manual.
func resolveBranch(root string, opts Options) (name string, created bool) {
	switch {
	case opts.RunID != "":
		name = "apply/" + opts.RunID
	case opts.BranchName != "":
		name = opts.BranchName
	default:
		name = "apply/manual"
	}
	exists := gitBranchExists(root, name)
	return name, !exists
}

func gitBranchExists(root, name string) bool {
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	cmd.Dir = root
	return cmd.Run() == nil
}

func gitIsClean(root string) bool {
	out, err := gitOutput(root, "status", "--porcelain")
	return err == nil && strings.TrimSpace(out) == ""
}

func gitOutput(root string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), err
}

func gitRun(root string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}

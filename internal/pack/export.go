package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"intentforge/internal/canon"
	"intentforge/internal/config"
	"intentforge/internal/kernel"
	"intentforge/internal/ledger"
	"intentforge/internal/logging"
	"intentforge/internal/patchset"
	"intentforge/internal/verify"
)

// Mode is one of plan/exec (§6 `pack-export --mode`), mapped onto
// ledger.Mode's plan-only/execute-sandbox vocabulary.
type Mode string

const (
	ModePlan Mode = "plan"
	ModeExec Mode = "exec"
)

func (m Mode) ledgerMode() ledger.Mode {
	if m == ModeExec {
		return ledger.ModeExecuteSandbox
	}
	return ledger.ModePlanOnly
}

// ModelMode is one of none/record/replay (§6 `pack-export --model-mode`).
type ModelMode string

const (
	ModelModeNone    ModelMode = "none"
	ModelModeRecord  ModelMode = "record"
	ModelModeReplay  ModelMode = "replay"
)

// ExportOptions controls a single pack-export invocation (§4.9).
type ExportOptions struct {
	IntentPath         string
	OutDir             string
	Policy             config.PolicyName
	Mode               Mode
	ModelMode          ModelMode
	ModelRecordingPath string
	DryRun             bool
	Archive            bool
	SignKeyFile        string
}

// ExportResult is the exporter's return shape (§4.9 step 7).
type ExportResult struct {
	OK            bool              `json:"ok"`
	OutDir        string            `json:"out_dir"`
	FilesWritten  []string          `json:"files_written"`
	PackVerify    *VerifyResult         `json:"pack_verify,omitempty"`
	RunOutcome    string                `json:"run_outcome"`
	ArchiveSHA256 string                `json:"archive_sha256,omitempty"`
	Error         string                `json:"error,omitempty"`
	Violations    []verify.Violation    `json:"violations,omitempty"`
}

// nowFunc and newRunID are indirected so tests can substitute deterministic
// values; production callers leave these at their defaults.
var (
	nowFunc = func() time.Time { return time.Now().UTC() }
	newRunID = func() string { return uuid.NewString() }
)

// Export runs the full exporter pipeline of §4.9 over opts.
func Export(opts ExportOptions) ExportResult {
	logger := logging.Get(logging.CategoryPack)

	// Step 1: resolve out_dir, guarded against traversal and non-empty
	// existing directories (shared WORKSPACE_SPEC check).
	ws := verify.VerifyWorkspace(opts.OutDir, verify.WorkspaceOptions{MustExist: false, MustBeEmpty: true, MustNotBeFile: true})
	if !ws.OK {
		logger.Warn("export refused: out_dir %s fails workspace checks", opts.OutDir)
		return ExportResult{
			OutDir:     opts.OutDir,
			Error:      fmt.Sprintf("out_dir fails workspace safety checks: %s", violationSummary(ws.Violations)),
			Violations: ws.Violations,
		}
	}
	outDir := ws.ResolvedPath

	if !opts.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot create out_dir: %v", err)}
		}
	}

	// Step 2: load and parse the intent, computing its content hash.
	raw, err := os.ReadFile(opts.IntentPath)
	if err != nil {
		return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot read intent file: %v", err)}
	}

	// Step 3: invoke the kernel façade.
	result := kernel.TransformJSON(raw)

	policyCfg := config.DefaultPolicyConfig(opts.Policy)
	runID := newRunID()
	timestamp := nowFunc().Format(time.RFC3339)

	files := map[string][]byte{}
	run := RunManifest{
		RunSchemaVersion: RunSchemaVersion,
		RunID:            runID,
		Timestamp:        timestamp,
		Mode:             string(opts.Mode),
		PolicyName:       string(policyCfg.Name),
		ResultKind:       string(result.Kind),
		Intent:           ArtifactRef{SHA256: result.IntentHash},
	}

	var bundleHashPtr *string
	switch result.Kind {
	case kernel.KindBundle:
		run.Accepted = true
		bHash, err := canon.Hash(*result.Bundle)
		if err != nil {
			return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot hash bundle: %v", err)}
		}
		bundleHashPtr = &bHash
		run.Bundle = &ArtifactRef{SHA256: bHash}

		bundleBytes, err := canon.CanonicalizeFile(*result.Bundle)
		if err != nil {
			return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize bundle: %v", err)}
		}
		files[FileBundle] = bundleBytes

		ps := patchset.FromBundle(*result.Bundle, bHash)
		patchBytes, err := canon.CanonicalizeFile(ps)
		if err != nil {
			return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize patch: %v", err)}
		}
		files[FilePatch] = patchBytes
		patchHash := canon.HashBytes(mustCanonicalize(ps))
		run.Patch = &ArtifactRef{SHA256: patchHash}

	case kernel.KindClarify:
		run.Accepted = false
		clarifyBundle := *result.Bundle
		clarifyBundle.Outputs = nil
		bundleBytes, err := canon.CanonicalizeFile(clarifyBundle)
		if err != nil {
			return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize bundle: %v", err)}
		}
		files[FileBundle] = bundleBytes

	case kernel.KindRefuse:
		run.Accepted = false
		run.RefuseReason = result.RefuseReason
	}

	policyBytes, err := canon.CanonicalizeFile(policyCfg)
	if err != nil {
		return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize policy: %v", err)}
	}
	files[FilePolicy] = policyBytes
	run.PolicyFile = &ArtifactRef{SHA256: canon.HashBytes(mustCanonicalize(policyCfg))}

	// run.json is canonicalized last since earlier steps fill in its refs.
	runBytes, err := canon.CanonicalizeFile(run)
	if err != nil {
		return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize run manifest: %v", err)}
	}
	files[FileRun] = runBytes

	// Ledger entry appended for every outcome (BUNDLE/CLARIFY/REFUSE).
	entry := ledger.Entry{
		LedgerSchemaVersion: ledger.SchemaVersion,
		RunID:               runID,
		Timestamp:           timestamp,
		IntentSHA256:        result.IntentHash,
		BundleSHA256:        bundleHashPtr,
		ResultKind:          ledger.ResultKind(result.Kind),
		Accepted:            run.Accepted,
		Mode:                opts.Mode.ledgerMode(),
		Policy:              ledger.Policy(policyCfg.Name),
	}
	ledgerLine, err := canon.Canonicalize(entry)
	if err != nil {
		return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot canonicalize ledger entry: %v", err)}
	}
	files[FileLedger] = append(append([]byte{}, ledgerLine...), '\n')

	writtenNames := make([]string, 0, len(files))
	for name := range files {
		writtenNames = append(writtenNames, name)
	}
	sort.Strings(writtenNames)

	if !opts.DryRun {
		for _, name := range writtenNames {
			if name == FileLedger {
				w := ledger.NewWriter(filepath.Join(outDir, FileLedger))
				if err := w.Append(entry); err != nil {
					return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot append ledger entry: %v", err)}
				}
				continue
			}
			if err := os.WriteFile(filepath.Join(outDir, name), files[name], 0o644); err != nil {
				return ExportResult{OutDir: outDir, Error: fmt.Sprintf("cannot write %s: %v", name, err)}
			}
		}
	}

	res := ExportResult{
		OutDir:       outDir,
		FilesWritten: writtenNames,
		RunOutcome:   string(result.Kind),
	}

	if opts.DryRun {
		res.OK = true
		logger.Info("dry-run export computed for %s: outcome=%s", outDir, result.Kind)
		return res
	}

	if opts.Archive {
		sha, err := archiveDir(outDir, writtenNames)
		if err != nil {
			res.Error = fmt.Sprintf("archive failed: %v", err)
			return res
		}
		res.ArchiveSHA256 = sha
	}

	if opts.SignKeyFile != "" {
		key, err := os.ReadFile(opts.SignKeyFile)
		if err != nil {
			res.Error = fmt.Sprintf("cannot read sign key: %v", err)
			return res
		}
		if err := Sign(outDir, key, "default"); err != nil {
			res.Error = fmt.Sprintf("signing failed: %v", err)
			return res
		}
		res.FilesWritten = append(res.FilesWritten, FileMeta)
		sort.Strings(res.FilesWritten)
	}

	pv := VerifyDir(outDir, VerifyOptions{Deep: true, Refs: true})
	res.PackVerify = &pv
	res.OK = pv.OK
	if !pv.OK {
		res.Error = "exported pack fails self-verification"
	}
	logger.Info("export to %s complete: outcome=%s ok=%v", outDir, result.Kind, res.OK)
	return res
}

// violationSummary joins violation messages into a single human-readable
// string so a workspace-safety refusal's Error field names the actual rule
// that tripped (e.g. "directory is non-empty") instead of just the generic
// cause.
func violationSummary(vs []verify.Violation) string {
	msgs := make([]string, 0, len(vs))
	for _, v := range vs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.RuleID, v.Message))
	}
	return strings.Join(msgs, "; ")
}

func mustCanonicalize(v any) []byte {
	b, err := canon.Canonicalize(v)
	if err != nil {
		panic(err)
	}
	return b
}

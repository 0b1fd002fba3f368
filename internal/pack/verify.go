package pack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"intentforge/internal/canon"
	"intentforge/internal/config"
	"intentforge/internal/verify"
)

// VerifyOptions toggles the optional phases of a Pack Verifier pass, mapped
// onto `pack-verify --no-deep`/`--no-refs`.
type VerifyOptions struct {
	Deep bool
	Refs bool
}

// VerifyResult is the composite Pack Verifier's (C10) {ok} |
// {ok:false, violations} result, one Buffer shared across every phase so
// violations from manifest shape, reference integrity, and per-artifact
// deep validation all sort together.
type VerifyResult struct {
	verify.Outcome
	Dir string `json:"dir"`
}

// VerifyDir walks dir and checks it against PACK_SPEC end to end: file
// manifest shape (PK1/PK2), total size ceiling (PK3), per-artifact deep
// validation delegated to the stateless verifiers of internal/verify
// (when opts.Deep), and run.json's declared content-hash references
// against the sibling files they point at (PK5, when opts.Refs).
func VerifyDir(dir string, opts VerifyOptions) VerifyResult {
	var buf verify.Buffer

	entries, err := os.ReadDir(dir)
	if err != nil {
		buf.Add("PK1", dir, "pack directory cannot be listed")
		return VerifyResult{verify.Outcome{OK: false, Violations: buf.Sorted()}, dir}
	}

	names := make([]string, 0, len(entries))
	contents := make(map[string][]byte, len(entries))
	var totalBytes int64
	for _, e := range entries {
		if e.IsDir() {
			buf.Add("PK2", e.Name(), "pack directory must not contain subdirectories")
			continue
		}
		name := e.Name()
		if !KnownFiles(name) {
			buf.Add("PK2", name, "unrecognized file in pack directory")
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			buf.Add("PK1", name, "file cannot be read")
			continue
		}
		names = append(names, name)
		contents[name] = data
		totalBytes += int64(len(data))
	}
	sort.Strings(names)

	for _, req := range RequiredFiles {
		if _, ok := contents[req]; !ok {
			buf.Add("PK1", req, "required file is missing")
		}
	}

	runData, hasRun := contents[FileRun]
	var run RunManifest
	if hasRun {
		if err := json.Unmarshal(runData, &run); err != nil {
			buf.Add("PK4", FileRun, "run.json is not valid JSON")
			hasRun = false
		}
	}

	if hasRun && !verify.RoundTripsCanonically(mustParse(runData)) {
		buf.Add("PK4", FileRun, "run.json is not canonical JSON")
	}

	if hasRun {
		policyCfgSize, ok := maxPackBytes(contents[FilePolicy])
		if ok && totalBytes > policyCfgSize {
			buf.Add("PK3", dir, "pack total size exceeds the configured ceiling")
		}
	}

	if opts.Deep {
		if data, ok := contents[FileBundle]; ok {
			if r := verify.VerifyBundle(data); !r.OK {
				buf.AddAll(r.Violations)
			}
		}
		if data, ok := contents[FilePatch]; ok {
			if r := verify.VerifyPatch(data); !r.OK {
				buf.AddAll(r.Violations)
			}
		}
		if data, ok := contents[FileLedger]; ok {
			if r := verify.VerifyLedger(data); !r.OK {
				buf.AddAll(r.Violations)
			}
		}
		if data, ok := contents[FileModelIO]; ok {
			if r := verify.VerifyModelIO(data); !r.OK {
				buf.AddAll(r.Violations)
			}
		}
	}

	if opts.Refs && hasRun {
		checkRef(&buf, "bundle", run.Bundle, contents, FileBundle)
		checkRef(&buf, "patch", run.Patch, contents, FilePatch)
		checkRef(&buf, "model_io", run.ModelIO, contents, FileModelIO)
		checkRef(&buf, "policy_file", run.PolicyFile, contents, FilePolicy)
		checkRef(&buf, "evidence", run.Evidence, contents, FileEvidence)

		if run.ResultKind == "BUNDLE" && run.Bundle == nil {
			buf.Add("PK5", "bundle", "run.json declares result_kind BUNDLE but carries no bundle reference")
		}
		if run.ResultKind != "BUNDLE" && run.Patch != nil {
			buf.Add("PK5", "patch", "patch reference present for a non-BUNDLE result_kind")
		}
	}

	return VerifyResult{verify.Outcome{OK: buf.Ok(), Violations: buf.Sorted()}, dir}
}

// checkRef confirms ref (if present) names a file that exists in contents
// and whose content hash matches the declared one (PK5).
func checkRef(buf *verify.Buffer, label string, ref *ArtifactRef, contents map[string][]byte, file string) {
	if ref == nil {
		return
	}
	data, ok := contents[file]
	if !ok {
		buf.Add("PK5", label, "run.json references "+file+" but it is missing from the pack")
		return
	}
	if canon.HashBytes(data) != ref.SHA256 {
		buf.Add("PK5", label, "run.json's recorded hash for "+file+" does not match its actual content")
	}
}

func mustParse(data []byte) any {
	v, err := canon.ParseTree(data)
	if err != nil {
		return nil
	}
	return v
}

// maxPackBytes reads the max_pack_total_bytes ceiling out of a policy.json
// payload if present, so VerifyDir can self-check PK3 against whatever
// policy the pack was exported under.
func maxPackBytes(policyData []byte) (int64, bool) {
	if len(policyData) == 0 {
		return 0, false
	}
	var cfg config.PolicyConfig
	if err := json.Unmarshal(policyData, &cfg); err != nil {
		return 0, false
	}
	if cfg.Ceilings.MaxPackTotalBytes <= 0 {
		return 0, false
	}
	return cfg.Ceilings.MaxPackTotalBytes, true
}

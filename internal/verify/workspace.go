package verify

import (
	"os"
	"path/filepath"
	"strings"
)

// WorkspaceCheckResult is WORKSPACE_SPEC's verify() result, shared by the
// Patch Engine (target_root), Git Apply Engine (target_root) and Pack
// Exporter (out_dir) — spec §4.6 step 3 and §4.9 step 1 both describe the
// same "resolve, guard against traversal, confirm suitable" sequence; this
// factors it into one reusable WS1-WS14 check.
type WorkspaceCheckResult struct {
	Outcome
	ResolvedPath string
}

// WorkspaceOptions distinguishes the two calling conventions: the Patch/Git
// Apply engines require an existing directory to mutate (its contents are
// not checked); the
// Pack Exporter requires a directory that is either absent or empty, which
// it will create.
type WorkspaceOptions struct {
	MustExist     bool
	MustBeEmpty   bool
	MustNotBeFile bool
}

// VerifyWorkspace checks path against WORKSPACE_SPEC (WS1-WS14).
func VerifyWorkspace(path string, opts WorkspaceOptions) WorkspaceCheckResult {
	var buf Buffer

	// WS1: path non-empty.
	if strings.TrimSpace(path) == "" {
		buf.Add("WS1", "path", "path is empty")
		return WorkspaceCheckResult{Outcome{OK: false, Violations: buf.Sorted()}, ""}
	}

	// WS2: no traversal component in the original string, checked before
	// any normalization (same rule as AS5/the exporter's out_dir guard).
	if strings.Contains(filepath.ToSlash(path), "..") {
		buf.Add("WS2", "path", "path contains a traversal component")
	}

	// WS3: no NUL byte (invalid on every platform's filesystem layer).
	if strings.ContainsRune(path, 0) {
		buf.Add("WS3", "path", "path contains a NUL byte")
	}

	// WS4: resolves to an absolute path.
	abs, err := filepath.Abs(path)
	if err != nil {
		buf.Add("WS4", "path", "path cannot be resolved to an absolute path")
		return WorkspaceCheckResult{Outcome{OK: false, Violations: buf.Sorted()}, ""}
	}

	info, statErr := os.Stat(abs)
	exists := statErr == nil

	// WS5: existence matches what the caller requires.
	if opts.MustExist && !exists {
		buf.Add("WS5", "path", "path does not exist")
	}

	if exists {
		// WS6: must be a directory, not a regular file or other node.
		if !info.IsDir() {
			buf.Add("WS6", "path", "path exists and is not a directory")
		} else {
			// WS7: directory emptiness matches what the caller requires.
			if opts.MustBeEmpty {
				entries, err := os.ReadDir(abs)
				if err != nil {
					buf.Add("WS7", "path", "directory cannot be listed")
				} else if len(entries) > 0 {
					buf.Add("WS7", "path", "directory is non-empty")
				}
			}

			// WS8: directory must be writable by this process.
			probe := filepath.Join(abs, ".intentforge-write-probe")
			if f, err := os.CreateTemp(abs, ".intentforge-write-probe-*"); err != nil {
				buf.Add("WS8", "path", "directory is not writable")
			} else {
				name := f.Name()
				f.Close()
				os.Remove(name)
				_ = probe
			}
		}
	} else if !opts.MustExist {
		// WS9: when absent and creation is permitted, the parent directory
		// must itself exist and be writable, or the caller cannot create it.
		parent := filepath.Dir(abs)
		pinfo, perr := os.Stat(parent)
		if perr != nil || !pinfo.IsDir() {
			buf.Add("WS9", "path", "parent directory does not exist")
		}
	}

	// WS10: must not itself be a symlink pointing outside a resolvable
	// location (broken symlink).
	if lst, err := os.Lstat(abs); err == nil && lst.Mode()&os.ModeSymlink != 0 {
		if _, err := filepath.EvalSymlinks(abs); err != nil {
			buf.Add("WS10", "path", "path is a broken symlink")
		}
	}

	// WS11: must not be the filesystem root.
	if abs == string(filepath.Separator) {
		buf.Add("WS11", "path", "path must not be the filesystem root")
	}

	// WS12: must not collide with the reserved .intentforge metadata dir name.
	if filepath.Base(abs) == ".intentforge" {
		buf.Add("WS12", "path", "path must not be named .intentforge")
	}

	// WS13: length sanity bound (defends against pathological OS limits).
	if len(abs) > 4096 {
		buf.Add("WS13", "path", "resolved path exceeds the maximum supported length")
	}

	// WS14: MustNotBeFile callers (pack export target) additionally forbid
	// passing an existing regular file as the directory argument outright.
	if opts.MustNotBeFile && exists && !info.IsDir() {
		buf.Add("WS14", "path", "path must be a directory, not a file")
	}

	return WorkspaceCheckResult{Outcome{OK: buf.Ok(), Violations: buf.Sorted()}, abs}
}

package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"intentforge/internal/gitapply"
	"intentforge/internal/patchset"
)

var (
	gitApplyPack       string
	gitApplyRepo       string
	gitApplyBranch     string
	gitApplyDryRun     bool
	gitApplyCommit     bool
	gitApplyMessage    string
	gitApplyAllowDirty bool
	gitApplyRunID      string
)

var gitApplyCmd = &cobra.Command{
	Use:   "git-apply",
	Short: "Apply a pack's patch.json against a git worktree on a dedicated branch",
	RunE:  runGitApply,
}

func init() {
	gitApplyCmd.Flags().StringVar(&gitApplyPack, "pack", "", "Pack directory containing patch.json (required)")
	gitApplyCmd.Flags().StringVar(&gitApplyRepo, "repo", "", "Git worktree root (required)")
	gitApplyCmd.Flags().StringVar(&gitApplyBranch, "branch", "", "Branch name override")
	gitApplyCmd.Flags().BoolVar(&gitApplyDryRun, "dry-run", false, "Compute hashes without writing files or creating branches")
	gitApplyCmd.Flags().BoolVar(&gitApplyCommit, "commit", false, "Commit the staged changes on success")
	gitApplyCmd.Flags().StringVar(&gitApplyMessage, "message", "", "Commit message")
	gitApplyCmd.Flags().BoolVar(&gitApplyAllowDirty, "allow-dirty", false, "Allow a dirty worktree precondition")
	gitApplyCmd.Flags().StringVar(&gitApplyRunID, "run-id", "", "run_id to derive the apply/<run_id> branch name from")
	gitApplyCmd.MarkFlagRequired("pack")
	gitApplyCmd.MarkFlagRequired("repo")
}

func runGitApply(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(gitApplyPack); err != nil || !info.IsDir() {
		return fail(1, "pack directory %q does not exist or is not a directory", gitApplyPack)
	}

	result := gitapply.Apply(gitApplyPack, gitApplyRepo, gitapply.Options{
		DryRun:     gitApplyDryRun,
		AllowDirty: gitApplyAllowDirty,
		Commit:     gitApplyCommit,
		Message:    gitApplyMessage,
		BranchName: gitApplyBranch,
		RunID:      gitApplyRunID,
	})
	if err := printCanonical(result); err != nil {
		return fail(1, "%v", err)
	}

	switch result.Outcome {
	case patchset.Success:
		return exitWithResult(0)
	case patchset.Partial, patchset.Failed:
		return exitWithResult(1)
	case patchset.Refused:
		if isGitToolingError(result.Error) {
			return exitWithResult(4)
		}
		if strings.Contains(result.Error, "decode patch.json") {
			return exitWithResult(2)
		}
		return exitWithResult(3)
	default:
		return exitWithResult(3)
	}
}

// isGitToolingError distinguishes §4.7's exit 4 ("git tooling error": the
// `git` binary itself failed to create/check out a branch) from the other
// REFUSED causes (missing repo, dirty tree, invalid patch), which all map
// to exit 3. The engine surfaces both as Outcome=REFUSED with only an
// error string to tell them apart.
func isGitToolingError(errMsg string) bool {
	return strings.Contains(errMsg, "cannot create branch") || strings.Contains(errMsg, "cannot check out branch")
}

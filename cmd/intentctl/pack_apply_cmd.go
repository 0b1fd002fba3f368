package main

import (
	"os"

	"github.com/spf13/cobra"

	"intentforge/internal/patch"
	"intentforge/internal/patchset"
)

var (
	packApplyPack   string
	packApplyTarget string
	packApplyDryRun bool
)

var packApplyCmd = &cobra.Command{
	Use:   "pack-apply",
	Short: "Apply a pack's patch.json against a target directory",
	RunE:  runPackApply,
}

func init() {
	packApplyCmd.Flags().StringVar(&packApplyPack, "pack", "", "Pack directory containing patch.json (required)")
	packApplyCmd.Flags().StringVar(&packApplyTarget, "target", "", "Target root to write into (required)")
	packApplyCmd.Flags().BoolVar(&packApplyDryRun, "dry-run", false, "Compute hashes without writing files")
	packApplyCmd.MarkFlagRequired("pack")
	packApplyCmd.MarkFlagRequired("target")
}

func runPackApply(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(packApplyPack); err != nil || !info.IsDir() {
		return fail(3, "pack directory %q does not exist or is not a directory", packApplyPack)
	}

	result := patch.Apply(packApplyPack, packApplyTarget, patch.Options{DryRun: packApplyDryRun})
	if err := printCanonical(result); err != nil {
		return fail(3, "%v", err)
	}

	switch result.Outcome {
	case patchset.Success:
		return exitWithResult(0)
	case patchset.Refused:
		return exitWithResult(2)
	case patchset.Partial, patchset.Failed:
		return exitWithResult(1)
	default:
		return exitWithResult(3)
	}
}

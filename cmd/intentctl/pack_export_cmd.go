package main

import (
	"github.com/spf13/cobra"

	"intentforge/internal/config"
	"intentforge/internal/pack"
)

var (
	packExportIntentPath string
	packExportOut        string
	packExportPolicy     string
	packExportMode       string
	packExportModelMode  string
	packExportModelRec   string
	packExportDryRun     bool
	packExportArchive    bool
	packExportSignKey    string
)

var packExportCmd = &cobra.Command{
	Use:   "pack-export",
	Short: "Run the kernel over an intent and write a pack directory",
	RunE:  runPackExport,
}

func init() {
	packExportCmd.Flags().StringVar(&packExportIntentPath, "intent", "", "Path to the intent JSON file (required)")
	packExportCmd.Flags().StringVar(&packExportOut, "out", "", "Output pack directory (required)")
	packExportCmd.Flags().StringVar(&packExportPolicy, "policy", "default", "Policy name: strict|default|dev")
	packExportCmd.Flags().StringVar(&packExportMode, "mode", "plan", "Run mode: plan|exec")
	packExportCmd.Flags().StringVar(&packExportModelMode, "model-mode", "none", "Model IO mode: none|record|replay")
	packExportCmd.Flags().StringVar(&packExportModelRec, "model-recording", "", "Path to a model IO recording file")
	packExportCmd.Flags().BoolVar(&packExportDryRun, "dry-run", false, "Compute the pack without writing files")
	packExportCmd.Flags().BoolVar(&packExportArchive, "archive", false, "Also write <out>.tar.zst")
	packExportCmd.Flags().StringVar(&packExportSignKey, "sign-key-file", "", "Sign the pack with the HMAC key in this file")
	packExportCmd.MarkFlagRequired("intent")
	packExportCmd.MarkFlagRequired("out")
}

func runPackExport(cmd *cobra.Command, args []string) error {
	policy := config.PolicyName(packExportPolicy)
	if !policy.Valid() {
		return fail(1, "invalid --policy %q", packExportPolicy)
	}

	opts := pack.ExportOptions{
		IntentPath:         packExportIntentPath,
		OutDir:             packExportOut,
		Policy:             policy,
		Mode:               pack.Mode(packExportMode),
		ModelMode:          pack.ModelMode(packExportModelMode),
		ModelRecordingPath: packExportModelRec,
		DryRun:             packExportDryRun,
		Archive:            packExportArchive,
		SignKeyFile:        packExportSignKey,
	}

	result := pack.Export(opts)
	if err := printCanonical(result); err != nil {
		return fail(1, "%v", err)
	}

	if len(result.Violations) > 0 {
		// out_dir failed a WORKSPACE_SPEC check (§4.9 step 1): a validation
		// refusal, not an IO failure.
		return exitWithResult(2)
	}
	if result.Error != "" && result.PackVerify == nil {
		// Failed before a pack ever got far enough to self-verify: a plain
		// IO error (unreadable intent file, unwritable out_dir, ...).
		return exitWithResult(1)
	}
	if !result.OK {
		// Exported but failed self-verification.
		return exitWithResult(2)
	}
	return exitWithResult(0)
}

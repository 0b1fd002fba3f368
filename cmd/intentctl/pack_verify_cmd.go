package main

import (
	"os"

	"github.com/spf13/cobra"

	"intentforge/internal/pack"
)

var (
	packVerifyNoDeep bool
	packVerifyNoRefs bool
)

var packVerifyCmd = &cobra.Command{
	Use:   "pack-verify <dir>",
	Short: "Verify a pack directory against PACK_SPEC",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackVerify,
}

func init() {
	packVerifyCmd.Flags().BoolVar(&packVerifyNoDeep, "no-deep", false, "Skip per-artifact deep validation")
	packVerifyCmd.Flags().BoolVar(&packVerifyNoRefs, "no-refs", false, "Skip run.json reference-integrity checks")
}

func runPackVerify(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(args[0]); err != nil || !info.IsDir() {
		return fail(2, "pack directory %q does not exist or is not a directory", args[0])
	}

	result := pack.VerifyDir(args[0], pack.VerifyOptions{
		Deep: !packVerifyNoDeep,
		Refs: !packVerifyNoRefs,
	})
	if err := printCanonical(result); err != nil {
		return fail(2, "%v", err)
	}
	if !result.OK {
		return exitWithResult(1)
	}
	return exitWithResult(0)
}

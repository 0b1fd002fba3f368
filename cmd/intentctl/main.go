// Command intentctl is the CLI surface over the intent-to-artifact
// pipeline: pack-export runs the kernel end to end and writes a pack
// directory; pack-verify/pack-apply/git-apply/model-io-verify operate on
// packs and artifacts already on disk.
//
// # File Index
//
//   - main.go             - entry point, rootCmd, global flags
//   - pack_export_cmd.go  - pack-export
//   - pack_verify_cmd.go  - pack-verify
//   - pack_apply_cmd.go   - pack-apply
//   - git_apply_cmd.go    - git-apply
//   - model_io_cmd.go     - model-io-verify
//   - version_cmd.go      - version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"intentforge/internal/logging"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "intentctl",
	Short: "intentctl - deterministic intent-to-artifact pipeline CLI",
	Long: `intentctl turns a normalized intent into a content-addressed,
self-verifying pack of artifacts (bundle, patch, ledger, policy), and
applies those artifacts to a filesystem or git worktree.

Every operation is deterministic: the same intent, the same inputs, the
same bytes out, every run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws, _ := os.Getwd()
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.AddCommand(
		packExportCmd,
		packVerifyCmd,
		packApplyCmd,
		gitApplyCmd,
		modelIOVerifyCmd,
		versionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitErr); ok {
			if ee.silent == nil || !*ee.silent {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitErr lets a subcommand's RunE carry an explicit exit code alongside
// its error message, since cobra itself only distinguishes "err or not".
// A subcommand that has already written its canonical JSON result to
// stdout sets silent so main doesn't also dump the error to stderr.
type exitErr struct {
	code   int
	err    error
	silent *bool
}

func (e *exitErr) Error() string { return e.err.Error() }

func fail(code int, format string, args ...any) error {
	return &exitErr{code: code, err: fmt.Errorf(format, args...)}
}

func exitWithResult(code int) error {
	silent := true
	return &exitErr{code: code, err: fmt.Errorf("exit %d", code), silent: &silent}
}

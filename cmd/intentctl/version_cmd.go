package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intentforge/internal/bundle"
	"intentforge/internal/config"
	"intentforge/internal/ledger"
	"intentforge/internal/modelio"
	"intentforge/internal/pack"
	"intentforge/internal/patchset"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "devBuild"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print intentctl's version and the schema versions it speaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("intentctl %s\n", version)
		fmt.Printf("bundle_schema_version=%s\n", bundle.SchemaVersion)
		fmt.Printf("patch_schema_version=%s apply_schema_version=%s git_apply_schema_version=%s\n",
			patchset.PatchSchemaVersion, patchset.ApplySchemaVersion, patchset.GitApplySchemaVersion)
		fmt.Printf("ledger_schema_version=%s model_io_schema_version=%s\n", ledger.SchemaVersion, modelio.SchemaVersion)
		fmt.Printf("run_schema_version=%s policy_schema_version=%s meta_schema_version=%s\n",
			pack.RunSchemaVersion, config.PolicySchemaVersion, pack.MetaSchemaVersion)
		return nil
	},
}

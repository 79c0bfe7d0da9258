package cli

import (
	"fmt"
	"io"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/pointy-labs/pointy/internal/userdata"
	"github.com/spf13/cobra"
)

var (
	doctorFix     bool
	checkManifest string
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair what can be repaired safely")
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a manifest file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the launcher installation",
	Long: `Verify the data directory, preferences.json and every installed extension:
each needs a valid manifest whose id matches its directory, an icon, and a
library for this platform. With --fix, missing directories are created,
unreadable preferences are reset, interrupted installs are cleaned up and
enabled ids that are no longer installed are pruned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if checkManifest != "" {
			return runManifestCheck(cmd, checkManifest)
		}

		fmt.Fprintf(out, "Platform: %s (library %s)\n\n", platform.Current(), platform.LibraryFileName)
		report, err := userdata.CheckInstall(out, doctorFix)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\n%d ok, %d missing, %d warnings, %d fixed\n",
			report.OK, report.Missing, report.Warnings, report.Fixed)
		if report.Healthy() {
			return nil
		}
		if !doctorFix {
			fmt.Fprintf(out, "Run '%s doctor --fix' to repair.\n", branding.CLIName())
			return fmt.Errorf("found %d problem(s)", report.Missing+report.Warnings)
		}

		// Re-check quietly: only what the fixes left behind counts.
		after, err := userdata.CheckInstall(io.Discard, false)
		if err != nil {
			return err
		}
		if !after.Healthy() {
			return fmt.Errorf("%d problem(s) could not be fixed", after.Missing+after.Warnings)
		}
		return nil
	},
}

func runManifestCheck(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	result, err := manifest.ValidateFile(manifest.DocManifest, path)
	if err != nil {
		return err
	}
	if result.Valid {
		fmt.Fprintf(out, "  [ OK ] %s is a valid manifest\n", path)
		return nil
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "  [FAIL] %s: %s\n", issue.Path, issue.Message)
	}
	return fmt.Errorf("%s: %d validation issue(s)", path, len(result.Issues))
}

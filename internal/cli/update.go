package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/pointy-labs/pointy/internal/updater"
	"github.com/spf13/cobra"
)

var (
	updateCheck bool
	updateJSON  bool
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&updateJSON, "json", false, "Print the run report as JSON")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update installed extensions",
	Long: `Fetch the latest release of every installed extension and install those
with a newer version. Extensions are updated concurrently (update_concurrency)
and one failing extension never stops the others.

  pointy update            # install every available update
  pointy update --check    # only report what would be updated`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			var (
				report *updater.Report
				err    error
			)
			if updateCheck {
				fmt.Fprintln(cmd.ErrOrStderr(), "Checking for updates...")
				report, err = svc.CheckUpdates(cmd.Context())
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "Updating extensions...")
				report, err = svc.UpdateAll(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("updating extensions: %w", err)
			}

			if updateJSON {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if err := printReport(cmd, report); err != nil {
				return err
			}

			if n := report.Count(updater.StatusFailed); n > 0 {
				return fmt.Errorf("%d extension(s) failed to update", n)
			}
			return nil
		})
	},
}

func printReport(cmd *cobra.Command, report *updater.Report) error {
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "No extensions installed.")
		return nil
	}

	t := newTable(out)
	fmt.Fprintln(t, "ID\tINSTALLED\tLATEST\tSTATUS\tERROR")
	for _, r := range report.Results {
		to := r.To
		if to == "" {
			to = "-"
		}
		fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.From, to, r.Status, r.Error)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d updated, %d available, %d up to date, %d failed (%s)\n",
		report.Count(updater.StatusUpdated),
		report.Count(updater.StatusAvailable),
		report.Count(updater.StatusUpToDate),
		report.Count(updater.StatusFailed),
		report.Duration.Round(1e6))
	return nil
}

package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/spf13/cobra"
)

var (
	listActive bool
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Long:  `List installed extensions in display order. Extensions without a readable manifest are skipped.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listActive, "active", false, "Only show enabled extensions")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *launcher.Service) error {
		var (
			infos []extension.Info
			err   error
		)
		if listActive {
			infos, err = svc.Active()
		} else {
			infos, err = svc.List()
		}
		if err != nil {
			return fmt.Errorf("listing extensions: %w", err)
		}

		if listJSON {
			if infos == nil {
				infos = []extension.Info{}
			}
			return printJSON(cmd.OutOrStdout(), infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No extensions installed yet.")
			return nil
		}
		return printExtensions(cmd.OutOrStdout(), infos)
	})
}

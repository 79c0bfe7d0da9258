package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Run an installed extension",
	Long: `Load the extension's native library and call its entry point. An error
string returned by the extension is printed and the command exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			return svc.Run(args[0])
		})
	},
}

var iconCmd = &cobra.Command{
	Use:   "icon <id>",
	Short: "Print an installed extension's SVG icon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			icon, err := svc.ReadIcon(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), icon)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd, iconCmd)
}

package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <id|manifest-url>",
	Short: "Install an extension",
	Long: `Install the latest release of an extension for this platform.

The argument is an id from the online index or the URL of an extension
manifest. The archive checksum is verified before anything is written, and
the extension is enabled once installed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "Installing %s...\n", args[0])
			release, err := svc.Install(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s\n", args[0], release.Version)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"uninstall", "delete"},
	Short:   "Remove an installed extension",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable an installed extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			enabled, err := svc.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "Disabled"
			if enabled {
				state = "Enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, args[0])
			return nil
		})
	},
}

var orderCmd = &cobra.Command{
	Use:   "order <id>...",
	Short: "Set the display order of extensions",
	Long: `Set the display order. Listed ids come first in the given order; the
remaining extensions follow sorted by id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			if err := svc.SetOrder(cmd.Context(), args); err != nil {
				return err
			}
			infos, err := svc.List()
			if err != nil {
				return err
			}
			return printExtensions(cmd.OutOrStdout(), infos)
		})
	},
}

func init() {
	rootCmd.AddCommand(installCmd, removeCmd, toggleCmd, orderCmd)
}

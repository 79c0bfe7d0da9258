package cli

import (
	"fmt"
	"strconv"

	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/spf13/cobra"
)

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change launcher preferences",
	Long: `Read and write the launcher preferences stored in preferences.json.
Use toggle and order to change which extensions are enabled and their order.`,
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the preferences as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *launcher.Service) error {
			p, err := svc.Preferences()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:       "set <autolaunch|shortcut> <value>",
	Short:     "Set a preference",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"autolaunch", "shortcut"},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		return withService(func(svc *launcher.Service) error {
			p, err := svc.Preferences()
			if err != nil {
				return err
			}
			switch key {
			case "autolaunch":
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("autolaunch must be true or false: %w", err)
				}
				p.Autolaunch = b
			case "shortcut":
				if value == "" {
					return fmt.Errorf("shortcut must not be empty")
				}
				p.Shortcut = value
			default:
				return fmt.Errorf("unknown preference %q (want autolaunch or shortcut)", key)
			}
			if _, err := svc.UpdatePreferences(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		})
	},
}

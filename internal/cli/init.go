package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/userdata"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory",
	Long: `Create the data directory (~/.pointy), the extensions directory and a
default preferences.json. Existing files are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Initializing %s at %s\n", branding.DisplayName(), userdata.GetDataRoot())

		if err := userdata.InitGlobal(out); err != nil {
			return fmt.Errorf("initializing data directory: %w", err)
		}

		fmt.Fprintf(out, "\nDone. Run '%s search --online' to find extensions.\n", branding.CLIName())
		return nil
	},
}

package cli

import (
	"fmt"
	"slices"

	"github.com/pointy-labs/pointy/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write application settings stored at ~/.pointy/config.yaml.

Keys: extensions_dir, registry_url, update_concurrency, http_timeout,
listen_addr, log_level, log_format, auto_update_interval, index_max_age,
keep_loaded. Environment variables POINTY_<KEY> take precedence.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !slices.Contains(config.Keys(), key) {
			return fmt.Errorf("unknown setting %q", key)
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(key))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its resolved value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable(cmd.OutOrStdout())
		fmt.Fprintln(t, "KEY\tVALUE")
		for _, key := range config.Keys() {
			fmt.Fprintf(t, "%s\t%s\n", key, config.Get(key))
		}
		fmt.Fprintf(t, "\nfile\t%s\n", config.FilePath())
		return t.Flush()
	},
}

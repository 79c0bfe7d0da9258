package cli

import (
	"fmt"

	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/spf13/cobra"
)

var (
	searchOnline bool
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search installed or online extensions",
	Long: `Search extensions by fuzzy matching the query against id, name and description.

Without --online the installed extensions are searched. With --online the
registry index is searched; it is cached locally for index_max_age.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchOnline, "online", false, "Search the online registry index")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	out := cmd.OutOrStdout()

	return withService(func(svc *launcher.Service) error {
		if !searchOnline {
			infos, err := svc.SearchInstalled(query)
			if err != nil {
				return fmt.Errorf("searching installed extensions: %w", err)
			}
			if searchJSON {
				return printJSON(out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, noMatches(query))
				return nil
			}
			return printExtensions(out, infos)
		}

		matches, err := svc.SearchOnline(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("searching registry: %w", err)
		}
		if searchJSON {
			return printJSON(out, matches)
		}
		if len(matches) == 0 {
			fmt.Fprintln(out, noMatches(query))
			return nil
		}

		t := newTable(out)
		fmt.Fprintln(t, "ID\tNAME\tVERSION\tDESCRIPTION")
		for _, m := range matches {
			desc := m.Manifest.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", m.Manifest.ID, m.Manifest.Name, m.Manifest.VersionString(), desc)
		}
		return t.Flush()
	})
}

func noMatches(query string) string {
	if query == "" {
		return "No extensions found"
	}
	return fmt.Sprintf("No extensions found matching %q", query)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pointy-labs/pointy/internal/extension"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

func printExtensions(w io.Writer, infos []extension.Info) error {
	t := newTable(w)
	fmt.Fprintln(t, "ID\tNAME\tVERSION\tENABLED")
	for _, info := range infos {
		enabled := "no"
		if info.Enabled {
			enabled = "yes"
		}
		fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", info.ID(), info.Manifest.Name, info.Manifest.VersionString(), enabled)
	}
	return t.Flush()
}

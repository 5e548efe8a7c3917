package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/garment-dashboard/internal/reports"
)

func newListCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List report pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, reports.DefaultRegistry(), section)
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "Only list pages in this section")
	return cmd
}

func runList(cmd *cobra.Command, reg *reports.Registry, section string) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "Slug\tTitle\tFilters\tEndpoint")
	fmt.Fprintln(w, "----\t-----\t-------\t--------")
	if section == "" {
		overview := reg.Overview()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", overview.Slug(), overview.Title(), "-", overview.Endpoint())
	}
	found := false
	for _, info := range reg.Sections() {
		if section != "" && info.Key != section {
			continue
		}
		found = true
		for _, page := range info.Pages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", page.Slug(), page.Title(), fieldNames(page), page.Endpoint())
		}
	}
	if section != "" && !found {
		return fmt.Errorf("unknown section %q", section)
	}
	return w.Flush()
}

func fieldNames(page reports.Page) string {
	fields := page.Form().Fields()
	if len(fields) == 0 {
		return "-"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ",")
}

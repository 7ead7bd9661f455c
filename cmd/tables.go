package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/trip-export/internal/export"
	"github.com/sells-group/trip-export/internal/resilience"
	"github.com/sells-group/trip-export/internal/sheet"
	"github.com/sells-group/trip-export/pkg/google"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show record counts for each source table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var gc google.Client
		if cfg.Source.Driver == "google" {
			c, err := initGoogle(cfg.Google)
			if err != nil {
				return err
			}
			gc = c
		}
		src, err := initSource(cfg.Source, gc)
		if err != nil {
			return err
		}
		return writeTableCounts(ctx, cmd.OutOrStdout(), resilience.Source(src, retryPolicy(cfg.Retry)))
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

// writeTableCounts prints the number of data records in every known table.
// Tables the source lists beyond the four joined ones are marked unused.
func writeTableCounts(ctx context.Context, out io.Writer, src sheet.Source) error {
	names := []string{export.TableTrips, export.TableProfile, export.TableContacts, export.TablePayments}
	var extra []string
	if l, ok := src.(sheet.Lister); ok {
		all, err := l.Tables(ctx)
		if err != nil {
			return err
		}
		for _, t := range all {
			if !slices.Contains(names, t) {
				extra = append(extra, t)
			}
		}
	}

	loader := sheet.NewLoader(src)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tRECORDS\tNOTE")
	for _, name := range names {
		recs, err := loader.Load(ctx, name)
		if err != nil {
			return err
		}
		note := ""
		if recs == nil {
			note = "missing or empty"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(recs), note)
	}
	for _, name := range extra {
		_, _ = fmt.Fprintf(w, "%s\t-\tunused\n", name)
	}
	return w.Flush()
}

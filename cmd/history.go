package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/trip-export/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived export attempts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("history requires store.driver sqlite or postgres")
		}
		defer st.Close() //nolint:errcheck

		trip, _ := cmd.Flags().GetString("trip")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")

		filter := store.ExportFilter{
			TripID: trip,
			Status: store.ExportStatus(status),
			Limit:  limit,
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		recs, err := st.ListExports(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history")
		}

		if len(recs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No exports found.")
			return nil
		}

		formatHistory(cmd.OutOrStdout(), recs)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("trip", "", "filter by trip id")
	historyCmd.Flags().String("status", "", "filter by status (published, failed)")
	historyCmd.Flags().Int("limit", 50, "max number of exports to display")
	historyCmd.Flags().Duration("since", 0, "only show exports newer than this (e.g. 24h)")
	rootCmd.AddCommand(historyCmd)
}

// formatHistory writes a tabular list of export records to out.
func formatHistory(out io.Writer, recs []store.ExportRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTRIP\tSTATUS\tTARGET\tDETAIL\tCREATED")
	for _, r := range recs {
		detail := r.Ref
		if r.Status == store.StatusFailed {
			detail = truncate(r.Error, 60)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID), r.TripID, r.Status, r.Target, detail,
			r.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

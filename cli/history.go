package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/stepcalc/history"
)

// NewHistoryCmd creates the "history" subcommand.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "Maximum number of records to show (0 for all)")
	cmd.Flags().String("user", "", "Show this user's records (default: the configured user)")
	cmd.Flags().Bool("all-users", false, "Show every user's records")
	cmd.Flags().Bool("steps", false, "Show the steps of each record")
	cmd.Flags().String("format", "text", "Output format: text | json")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return exitError(exitUsage, "unknown format %q", format)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return exitError(exitUsage, "limit must not be negative")
	}
	e, err := loadEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = e.cfg.UserID
	}
	if all, _ := cmd.Flags().GetBool("all-users"); all {
		user = ""
	}
	recs, err := e.store.List(cmd.Context(), user, limit)
	if err != nil {
		return exitError(exitHistory, "listing history: %v", err)
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if recs == nil {
			recs = []history.Record{}
		}
		return enc.Encode(recs)
	}
	if steps, _ := cmd.Flags().GetBool("steps"); steps {
		for _, rec := range recs {
			writeRecords(w, []history.Record{rec})
			for _, s := range rec.Steps {
				fmt.Fprintf(w, "\t%s\n", s)
			}
		}
		return nil
	}
	writeRecords(w, recs)
	return nil
}

// writeRecords writes records as an aligned table.
func writeRecords(w io.Writer, recs []history.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, rec := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s = %s\n",
			rec.ID,
			rec.Timestamp.Local().Format(time.DateTime),
			rec.ComputationType,
			rec.Expression,
			rec.Result,
		)
	}
	tw.Flush()
}

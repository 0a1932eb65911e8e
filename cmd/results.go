package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored check results",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored check results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		listingID, _ := cmd.Flags().GetString("listing-id")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		results, err := st.ListResults(ctx, store.ResultFilter{
			ListingID: listingID,
			Source:    model.ResultSource(source),
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		formatResultsList(os.Stdout, results)
		return nil
	},
}

// -- results show --

var resultsShowCmd = &cobra.Command{
	Use:   "show <listing-id>",
	Short: "Show the latest result for a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		result, err := st.LatestResult(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results show")
		}
		if result == nil {
			return eris.Errorf("no result stored for %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	resultsListCmd.Flags().String("listing-id", "", "filter by listing ID")
	resultsListCmd.Flags().String("source", "", "filter by result source (model, fallback)")
	resultsListCmd.Flags().Int("limit", 50, "max number of results to display")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	rootCmd.AddCommand(resultsCmd)
}

// formatResultsList writes a tabular list of results to w.
func formatResultsList(out io.Writer, results []model.ConsistencyResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LISTING\tADDRESS\tCONSISTENT\tFINDINGS\tSOURCE\tCHECKED")
	_, _ = fmt.Fprintln(w, "-------\t-------\t----------\t--------\t------\t-------")

	for _, r := range results {
		address := r.PropertyAddress
		if ra := []rune(address); len(ra) > 36 {
			address = string(ra[:33]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\t%s\n",
			r.ListingID,
			address,
			r.IsConsistent,
			r.TotalInconsistencies,
			r.Source,
			r.CheckedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flatcheck/flatcheck/internal/districts"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "Print the Prague district reference tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := districts.New()
		if err != nil {
			return err
		}
		formatDistricts(os.Stdout, catalog.All())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(districtsCmd)
}

func formatDistricts(out io.Writer, stats []districts.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DISTRICT\tCZK/M2\tTREND\tCATEGORY\tVIOLENT\tBURGLARY\tFIRE\tKEBAB")
	_, _ = fmt.Fprintln(w, "--------\t------\t-----\t--------\t-------\t--------\t----\t-----")

	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%+.1f%%\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Name,
			s.AvgPricePerSqmCZK,
			s.PriceChangePercent,
			s.PriceCategory,
			s.ViolentCrimeRate,
			s.BurglaryRate,
			s.FireRate,
			s.KebabIndex,
		)
	}
	_ = w.Flush()
}

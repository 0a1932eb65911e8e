package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/pipeline"
)

var (
	checkURL     string
	checkRawFile string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single listing for description inconsistencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if checkURL == "" && checkRawFile == "" {
			return eris.New("either --url or --raw is required")
		}

		e, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := runCheck(cmd, e)
		if err != nil {
			return err
		}

		zap.L().Info("check complete",
			zap.String("listing_id", report.ListingID),
			zap.Bool("consistent", report.Result.IsConsistent),
			zap.Int("inconsistencies", report.Result.TotalInconsistencies),
			zap.String("source", string(report.Result.Source)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func runCheck(cmd *cobra.Command, e *env) (*pipeline.CheckReport, error) {
	ctx := cmd.Context()

	if checkRawFile != "" {
		data, err := os.ReadFile(checkRawFile)
		if err != nil {
			return nil, eris.Wrap(err, "read raw listing file")
		}
		var raw model.RawListing
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrap(err, "parse raw listing file")
		}
		if raw.URL == "" {
			return nil, eris.New("raw listing file has no url field")
		}
		return e.Pipeline.CheckRaw(ctx, &raw)
	}

	return e.Pipeline.CheckURL(ctx, checkURL)
}

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "", "listing URL to scrape and check")
	checkCmd.Flags().StringVar(&checkRawFile, "raw", "", "path to a JSON file with already scraped listing data")
	rootCmd.AddCommand(checkCmd)
}

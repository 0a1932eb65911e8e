package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/pipeline"
)

var (
	batchInput string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Check listings from a file of URLs",
	Long:  "Reads listing URLs from a .txt, .csv or .xlsx file and checks them concurrently. Individual failures never abort the batch; they are stored as fallback results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls, err := readURLs(batchInput)
		if err != nil {
			return err
		}

		e, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		return processBatch(ctx, urls, batchLimit, cfg.Batch.MaxConcurrentListings, func(ctx context.Context, url string) (*pipeline.CheckReport, error) {
			return e.Pipeline.CheckURL(ctx, url)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "file with listing URLs, one per row (.txt, .csv or .xlsx)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of URLs to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// checkFunc is the callback signature for checking one URL.
type checkFunc func(ctx context.Context, url string) (*pipeline.CheckReport, error)

// processBatch checks URLs concurrently. Per-URL failures are counted, not
// propagated; the pipeline already stores a fallback result for them.
func processBatch(ctx context.Context, urls []string, limit, concurrency int, check checkFunc) error {
	if len(urls) == 0 {
		zap.L().Info("no urls to process")
		return nil
	}

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var consistent, flagged, fellBack atomic.Int64

	for _, url := range urls {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", url))

			report, err := check(gctx, url)
			if err != nil {
				// Only cancellation reaches here; let errgroup stop the batch.
				return err
			}

			switch {
			case report.Result.Source == model.SourceFallback:
				fellBack.Add(1)
				log.Warn("check fell back", zap.String("summary", report.Result.Summary))
			case report.Result.IsConsistent:
				consistent.Add(1)
				log.Info("listing consistent", zap.String("listing_id", report.ListingID))
			default:
				flagged.Add(1)
				log.Info("inconsistencies found",
					zap.String("listing_id", report.ListingID),
					zap.Int("count", report.Result.TotalInconsistencies),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("consistent", consistent.Load()),
		zap.Int64("flagged", flagged.Load()),
		zap.Int64("fallback", fellBack.Load()),
	)
	return nil
}

// readURLs loads listing URLs from a text, CSV or XLSX file. For tabular
// formats the first column is used and a header row is skipped when it does
// not look like a URL.
func readURLs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return readURLsText(path)
	case ".csv":
		return readURLsCSV(path)
	case ".xlsx":
		return readURLsXLSX(path)
	default:
		return nil, eris.Errorf("unsupported input format: %s", filepath.Ext(path))
	}
}

func readURLsText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read input file")
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		if u := strings.TrimSpace(line); isURL(u) {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func readURLsCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open input file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var urls []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read csv input")
		}
		if len(record) == 0 {
			continue
		}
		if u := strings.TrimSpace(record[0]); isURL(u) {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func readURLsXLSX(path string) ([]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "open xlsx input")
	}

	var urls []string
	for _, sheet := range file.Sheets {
		for _, row := range sheet.Rows {
			if len(row.Cells) == 0 {
				continue
			}
			if u := strings.TrimSpace(row.Cells[0].String()); isURL(u) {
				urls = append(urls, u)
			}
		}
	}
	return urls, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

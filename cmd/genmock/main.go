// Command genmock writes a synthetic report archive: country and region
// reports, the daily archive and the stats tables, in the layout the
// reports command reads.
//
// Usage:
//
//	go run ./cmd/genmock -out data -days 120 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/sample"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := sample.DefaultOptions()

	out := flag.String("out", "data", "data root to write")
	start := flag.String("start", domain.FormatDay(defaults.Start), "first day (DD-MM-YYYY)")
	days := flag.Int("days", defaults.Days, "number of days per report")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	partial := flag.Bool("partial-last-day", defaults.PartialLastDay, "write the newest archive file with a single row")
	flag.Parse()

	opts := defaults
	first, err := domain.ParseDay(*start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive, got %d", *days)
	}
	opts.Start = first
	opts.Days = *days
	opts.Seed = *seed
	opts.PartialLastDay = *partial

	began := time.Now()
	st, err := sample.Generate(sample.NewWriter(*out), opts)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d reports, %d daily files, %d stats files to %s in %s\n",
		st.Reports, st.DailyReports, st.StatsFiles, *out, time.Since(began).Round(time.Millisecond))
	return nil
}

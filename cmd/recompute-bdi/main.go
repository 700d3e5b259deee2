// Package main recomputes disagreement scores for existing analysis CSVs
// using both sides of each totals line.
package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/csvstore"
)

func main() {
	var (
		input  = flag.String("input", "", "Analysis CSV to recompute (required)")
		output = flag.String("output", "", "Output path (default: <input>_fairBDI.csv)")
	)
	flag.Parse()

	appLog := logrus.New()
	if *input == "" {
		appLog.Fatal("-input is required")
	}

	out := *output
	if out == "" {
		ext := filepath.Ext(*input)
		out = strings.TrimSuffix(*input, ext) + "_fairBDI" + ext
	}

	store, err := csvstore.NewStore(filepath.Dir(*input), time.UTC, appLog)
	if err != nil {
		appLog.Fatalf("Failed to open directory: %v", err)
	}

	rows, err := store.ReadFile(*input)
	if err != nil {
		appLog.Fatalf("Failed to read %s: %v", *input, err)
	}

	updated := csvstore.RecomputeFairBDI(rows)
	if err := store.WriteFile(out, rows); err != nil {
		appLog.Fatalf("Failed to write %s: %v", out, err)
	}

	fmt.Printf("Recomputed disagreement for %d of %d rows, wrote %s\n", updated, len(rows), out)
}

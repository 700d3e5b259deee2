package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/oddslab/internal/service"
)

var calibratedHeader = []string{
	"MatchID", "Match", "KickoffUTC", "League", "MarketType", "Market",
	"Bookmaker", "BestPrice", "PredictedWinProb", "Result", "Profit",
}

// WriteCalibratedCSV writes the held-out predictions with their modeled win
// probabilities next to the realized outcomes, and returns the written path.
func (m *MarkdownReporter) WriteCalibratedCSV(ev *service.Evaluation, now time.Time) (string, error) {
	path := filepath.Join(m.dir, fmt.Sprintf("calibrated_%s.csv", now.UTC().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create calibrated CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(calibratedHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range ev.Predictions {
		r := p.Row
		profit := ""
		if r.Profit != nil {
			profit = strconv.FormatFloat(*r.Profit, 'f', -1, 64)
		}
		record := []string{
			r.Match.ID,
			r.Match.Display(),
			r.Match.Kickoff.UTC().Format(time.RFC3339),
			r.Match.League,
			string(r.Market),
			r.MarketName,
			r.Bookmaker,
			strconv.FormatFloat(r.BestPrice, 'f', -1, 64),
			strconv.FormatFloat(p.Prob, 'f', 6, 64),
			string(r.Result),
			profit,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush calibrated CSV: %w", err)
	}

	m.logger.WithField("path", path).Info("Calibrated predictions written")
	return path, nil
}

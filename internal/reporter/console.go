// Package reporter renders analysis results for humans: console tables for
// interactive runs and markdown reports for evaluation output.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yourusername/oddslab/internal/models"
	"github.com/yourusername/oddslab/internal/service"
)

// ConsoleReporter writes ranked analysis tables to a writer.
type ConsoleReporter struct {
	out      io.Writer
	location *time.Location
}

// NewConsoleReporter creates a console reporter. Kickoff times are shown in
// the given timezone.
func NewConsoleReporter(out io.Writer, location *time.Location) *ConsoleReporter {
	if location == nil {
		location = time.UTC
	}
	return &ConsoleReporter{out: out, location: location}
}

// PrintAnalysis renders the ranked selection table. limit <= 0 prints
// everything.
func (c *ConsoleReporter) PrintAnalysis(results []models.AnalysisResult, limit int) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No selections found.")
		return
	}

	sorted := make([]models.AnalysisResult, len(results))
	copy(sorted, results)
	models.SortByScore(sorted)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tKICKOFF\tLEAGUE\tMARKET\tBEST\tBOOK\tN\tSCORE\tVOL%\tBDI")
	for _, r := range sorted {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%d\t%s\t%s\t%s\n",
			truncate(r.Match.Display(), 40),
			r.Match.Kickoff.In(c.location).Format("02 Jan 15:04"),
			truncate(r.Match.League, 24),
			r.MarketName,
			r.BestPrice,
			r.Bookmaker,
			r.NumBookmakers,
			cell(r.ScoreFinal(), "%.3f"),
			cell(r.VolatilityPct, "%.2f"),
			cell(r.BDIJSD, "%.4f"),
		)
	}
	w.Flush()
}

// PrintRunSummary renders the scan totals under the table.
func (c *ConsoleReporter) PrintRunSummary(run models.AnalysisRun) {
	fmt.Fprintf(c.out, "\nScanned %d fixtures, %d with quotes, %d selections (%.1fs)\n",
		run.MatchesScanned, run.MatchesQuoted, run.MarketsFound,
		run.FinishedAt.Sub(run.StartedAt).Seconds())
}

// PrintSyncSummary renders the outcome of a results sync.
func (c *ConsoleReporter) PrintSyncSummary(s service.SyncSummary) {
	fmt.Fprintf(c.out, "Settled %d of %d pending predictions: %d won, %d lost, net %s units\n",
		s.Settled, s.Pending, s.Won, s.Lost, s.TotalProfit.StringFixed(2))
}

// cell renders an optional metric, "-" when absent.
func cell(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// truncate shortens long labels for narrow terminals. Operates on runes so
// accented team names are never cut mid-character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max <= 1 {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

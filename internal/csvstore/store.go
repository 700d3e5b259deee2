// Package csvstore persists analysis results as CSV files, the primary
// storage format of the research pipeline. Optional metrics are written as
// empty cells and read back as nil, so "no data" survives a round trip.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/models"
)

// Column order of every analysis CSV this package writes.
var header = []string{
	"MatchID",
	"Match",
	"KickoffUTC",
	"KickoffLocal",
	"League",
	"Country",
	"SportKey",
	"MarketType",
	"Market",
	"BestBookmaker",
	"BestPrice",
	"ImpliedProb",
	"NumBookmakers",
	"ScoreFinal",
	"PriceAdvantage",
	"VolatilityPct",
	"BookmakerMarginPct",
	"AvgMarketMarginPct",
	"AvgMarketPrice",
	"BDI_jsd",
	"BDI_n_bookmakers",
	"BDI_std_p",
	"BDI_mad_p",
	"AllQuotes",
	"Result",
	"Profit",
}

const (
	kickoffUTCLayout   = time.RFC3339
	kickoffLocalLayout = "2006-01-02 15:04"
)

// Store reads and writes analysis CSV files under one directory.
type Store struct {
	dir      string
	location *time.Location
	logger   *logrus.Logger
}

// NewStore creates a store rooted at dir. Local kickoff times are rendered
// in the given timezone.
func NewStore(dir string, location *time.Location, logger *logrus.Logger) (*Store, error) {
	if location == nil {
		location = time.UTC
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Store{dir: dir, location: location, logger: logger}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// WriteAnalysis writes one scan's results to a timestamped CSV, ordered by
// final score descending. Returns the file path.
func (s *Store) WriteAnalysis(results []models.AnalysisResult, now time.Time) (string, error) {
	filename := fmt.Sprintf("market_analysis_%s.csv", now.Format("20060102_150405"))
	path := filepath.Join(s.dir, filename)

	sorted := make([]models.AnalysisResult, len(results))
	copy(sorted, results)
	models.SortByScore(sorted)

	if err := s.WriteFile(path, sorted); err != nil {
		return "", err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"path": path, "rows": len(sorted)}).Info("Analysis CSV written")
	}
	return path, nil
}

// WriteFile writes results to an explicit path, overwriting it.
func (s *Store) WriteFile(path string, results []models.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(s.encodeRow(r)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadFile reads an analysis CSV back into results. Unknown extra columns
// are ignored; missing optional cells become nil fields.
func (s *Store) ReadFile(path string) ([]models.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[name] = i
	}

	results := make([]models.AnalysisResult, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := s.decodeRow(record, cols)
		if err != nil {
			if s.logger != nil {
				s.logger.WithField("line", i+2).Warnf("Skipping malformed row: %v", err)
			}
			continue
		}
		results = append(results, row)
	}
	return results, nil
}

func (s *Store) encodeRow(r models.AnalysisResult) []string {
	return []string{
		r.Match.ID,
		r.Match.Display(),
		r.Match.Kickoff.UTC().Format(kickoffUTCLayout),
		r.Match.Kickoff.In(s.location).Format(kickoffLocalLayout),
		r.Match.League,
		r.Match.Country,
		r.Match.SportKey,
		string(r.Market),
		r.MarketName,
		r.Bookmaker,
		formatFloat(r.BestPrice),
		formatFloat(r.ImpliedProb),
		strconv.Itoa(r.NumBookmakers),
		formatOptional(r.ScoreFinal()),
		formatOptional(r.PriceAdvantage()),
		formatOptional(r.VolatilityPct),
		formatOptional(r.BookmakerMarginPct),
		formatOptional(r.AvgMarketMarginPct),
		formatOptional(r.AvgMarketPrice),
		formatOptional(r.BDIJSD),
		strconv.Itoa(r.BDINBookmakers),
		formatOptional(r.BDIStdP),
		formatOptional(r.BDIMADP),
		r.AllQuotes,
		string(r.Result),
		formatOptional(r.Profit),
	}
}

func (s *Store) decodeRow(record []string, cols map[string]int) (models.AnalysisResult, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	kickoff, err := time.Parse(kickoffUTCLayout, get("KickoffUTC"))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("bad KickoffUTC: %w", err)
	}

	home, away := splitDisplay(get("Match"))

	r := models.AnalysisResult{
		Match: models.Match{
			ID:       get("MatchID"),
			HomeTeam: home,
			AwayTeam: away,
			League:   get("League"),
			Country:  get("Country"),
			Kickoff:  kickoff,
			SportKey: get("SportKey"),
		},
		Market:     models.MarketType(get("MarketType")),
		MarketName: get("Market"),
		Bookmaker:  get("BestBookmaker"),
		AllQuotes:  get("AllQuotes"),
		Result:     models.BetResult(get("Result")),
	}
	if r.Result == "" {
		r.Result = models.ResultPending
	}

	if r.BestPrice, err = parseFloat(get("BestPrice")); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("bad BestPrice: %w", err)
	}
	r.ImpliedProb, _ = parseFloat(get("ImpliedProb"))
	r.NumBookmakers, _ = strconv.Atoi(get("NumBookmakers"))
	r.BDINBookmakers, _ = strconv.Atoi(get("BDI_n_bookmakers"))

	r.VolatilityPct = parseOptional(get("VolatilityPct"))
	r.BookmakerMarginPct = parseOptional(get("BookmakerMarginPct"))
	r.AvgMarketMarginPct = parseOptional(get("AvgMarketMarginPct"))
	r.AvgMarketPrice = parseOptional(get("AvgMarketPrice"))
	r.BDIJSD = parseOptional(get("BDI_jsd"))
	r.BDIStdP = parseOptional(get("BDI_std_p"))
	r.BDIMADP = parseOptional(get("BDI_mad_p"))
	r.Profit = parseOptional(get("Profit"))

	return r, nil
}

// ParseQuotes parses an AllQuotes cell ("book:price;book:price") into a map.
// Malformed fragments are dropped.
func ParseQuotes(cell string) map[string]float64 {
	quotes := map[string]float64{}
	for _, part := range strings.Split(cell, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		quotes[strings.TrimSpace(name)] = price
	}
	return quotes
}

func splitDisplay(display string) (home, away string) {
	home, away, found := strings.Cut(display, " vs ")
	if !found {
		return display, ""
	}
	return home, away
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

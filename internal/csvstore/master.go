package csvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/oddslab/internal/models"
)

// MasterFilename is the rolling dataset every scan merges into.
const MasterFilename = "master_dataset.csv"

// dedupeKey identifies one selection across scans. Two rows with the same
// key describe the same bet, so only one survives a merge.
func dedupeKey(r models.AnalysisResult) string {
	return strings.Join([]string{
		r.Match.ID,
		string(r.Market),
		r.MarketName,
		r.Bookmaker,
	}, "|")
}

// settled reports whether a row carries a final outcome.
func settled(r models.AnalysisResult) bool {
	return r.Result == models.ResultWon || r.Result == models.ResultLost
}

// MergeIntoMaster folds new scan results into the master dataset. Rules:
// a settled row is never overwritten, a pending row is replaced by a newer
// row for the same key, and unseen keys are appended. Returns the merged
// row count.
func (s *Store) MergeIntoMaster(fresh []models.AnalysisResult) (int, error) {
	path := filepath.Join(s.dir, MasterFilename)

	var existing []models.AnalysisResult
	if _, err := os.Stat(path); err == nil {
		existing, err = s.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read master dataset: %w", err)
		}
	}

	byKey := make(map[string]models.AnalysisResult, len(existing))
	order := make([]string, 0, len(existing))
	for _, r := range existing {
		key := dedupeKey(r)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = r
	}

	for _, r := range fresh {
		key := dedupeKey(r)
		current, seen := byKey[key]
		if seen && settled(current) {
			continue
		}
		if !seen {
			order = append(order, key)
		}
		byKey[key] = r
	}

	merged := make([]models.AnalysisResult, 0, len(order))
	for _, key := range order {
		merged = append(merged, byKey[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Match.Kickoff.Before(merged[j].Match.Kickoff)
	})

	if err := s.WriteFile(path, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// ReadMaster loads the master dataset, empty when none exists yet.
func (s *Store) ReadMaster() ([]models.AnalysisResult, error) {
	path := filepath.Join(s.dir, MasterFilename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return s.ReadFile(path)
}

// WriteMaster overwrites the master dataset, used after settlement updates.
func (s *Store) WriteMaster(results []models.AnalysisResult) error {
	return s.WriteFile(filepath.Join(s.dir, MasterFilename), results)
}

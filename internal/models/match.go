package models

import (
	"fmt"
	"time"
)

// Match represents one scheduled football fixture as reported by the odds
// provider. ID is the provider's event identifier.
type Match struct {
	ID       string    `json:"id" validate:"required"`
	HomeTeam string    `json:"home_team" validate:"required"`
	AwayTeam string    `json:"away_team" validate:"required"`
	League   string    `json:"league" validate:"required"`
	Country  string    `json:"country"`
	Kickoff  time.Time `json:"kickoff_time" validate:"required"`
	SportKey string    `json:"sport_key" validate:"required"`
}

// Display returns the "Home vs Away" label used in reports and CSV rows.
func (m Match) Display() string {
	return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
}

// StartsWithin reports whether the fixture kicks off between now and the
// given horizon.
func (m Match) StartsWithin(now time.Time, horizon time.Duration) bool {
	return m.Kickoff.After(now) && !m.Kickoff.After(now.Add(horizon))
}

// Score holds a completed match result fetched from the scores endpoint.
type Score struct {
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
	Completed bool   `json:"completed"`
}

// TotalGoals returns the combined goal count for totals settlement.
func (s Score) TotalGoals() int {
	return s.HomeGoals + s.AwayGoals
}

// Package models defines the domain records shared across the odds
// analysis pipeline.
package models

// MarketType identifies a betting market for a football match.
type MarketType string

const (
	MarketDoubleChance1X MarketType = "1X"
	MarketDoubleChanceX2 MarketType = "X2"
	MarketMatchWinner1   MarketType = "1"
	MarketMatchWinnerX   MarketType = "X"
	MarketMatchWinner2   MarketType = "2"
	MarketTotals         MarketType = "TOTALS"
	MarketBTTS           MarketType = "BTTS"
)

// DisplayName returns a human readable market family label for reports.
func (m MarketType) DisplayName() string {
	switch m {
	case MarketDoubleChance1X, MarketDoubleChanceX2:
		return "Double Chance"
	case MarketMatchWinner1, MarketMatchWinnerX, MarketMatchWinner2:
		return "Match Winner"
	case MarketTotals:
		return "Goals (Over/Under)"
	case MarketBTTS:
		return "Both Teams To Score"
	default:
		return string(m)
	}
}

// BetResult is the settled state of an analysed selection after the match
// has been reconciled against real scores.
type BetResult string

const (
	ResultPending BetResult = "Pending"
	ResultWon     BetResult = "Won"
	ResultLost    BetResult = "Lost"
)

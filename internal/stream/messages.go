// Package stream pushes fresh scan selections to websocket subscribers.
package stream

import (
	"time"

	"github.com/yourusername/oddslab/internal/models"
)

// Message types exchanged with stream clients.
const (
	MessageTypeSelections  = "selections"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ServerMessage is the envelope for everything sent to a client.
type ServerMessage struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for everything received from a client.
type ClientMessage struct {
	Type    string             `json:"type"`
	Payload SubscriptionFilter `json:"payload,omitempty"`
}

// SubscriptionFilter narrows which selections a client receives. Empty
// fields match everything.
type SubscriptionFilter struct {
	Leagues  []string `json:"leagues,omitempty"`
	Markets  []string `json:"markets,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
}

// Matches reports whether one selection passes the filter.
func (f SubscriptionFilter) Matches(r models.AnalysisResult) bool {
	if len(f.Leagues) > 0 && !contains(f.Leagues, r.Match.League) {
		return false
	}
	if len(f.Markets) > 0 && !contains(f.Markets, string(r.Market)) {
		return false
	}
	if f.MinScore != nil {
		score := r.ScoreFinal()
		if score == nil || *score < *f.MinScore {
			return false
		}
	}
	return true
}

// ErrorMessage is the payload of an error frame.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

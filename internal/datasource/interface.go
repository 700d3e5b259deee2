package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/oddslab/internal/models"
)

// OddsProvider defines the interface for fetching fixtures, prices and
// results from an external odds feed.
type OddsProvider interface {
	// ListEvents retrieves upcoming fixtures for one competition.
	ListEvents(ctx context.Context, sportKey string) ([]models.Match, error)

	// EventOdds retrieves every configured bookmaker's prices for one
	// fixture, grouped by market.
	EventOdds(ctx context.Context, match models.Match, markets []string) (*models.MatchOdds, error)

	// Scores retrieves completed results for one competition going back
	// daysFrom days.
	Scores(ctx context.Context, sportKey string, daysFrom int) ([]models.Score, error)

	// RemainingQuota returns the provider's reported request budget, or -1
	// when unknown.
	RemainingQuota() int

	// Name returns the name of the provider.
	Name() string
}

// ProviderError represents errors from odds provider operations
type ProviderError struct {
	Provider string // provider name
	Code     string // error code (e.g. "rate_limit_exceeded")
	Message  string
	Err      error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeQuotaExhausted       = "quota_exhausted"
)

var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidData          = errors.New("invalid data format")
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, err error) ProviderError {
	return ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

package models

import "errors"

// Custom errors
var (
	ErrNoMatches      = errors.New("no matches available for analysis")
	ErrMatchNotFound  = errors.New("match not found in scores feed")
	ErrUnknownLeague  = errors.New("league has no sport key mapping")
	ErrUnknownMarket  = errors.New("market type cannot be settled")
	ErrQuotaExhausted = errors.New("odds API request quota exhausted")
	ErrMissingAPIKey  = errors.New("odds API key is not configured")
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key violation")
)

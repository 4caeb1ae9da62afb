package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Source and catalog errors
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrPageLayout        = fmt.Errorf("unrecognized page layout")
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrTrackNotFound     = fmt.Errorf("track not found")
	ErrAPIRequest        = fmt.Errorf("API request failed")

	// Persistence errors
	ErrDatabaseUnavailable = fmt.Errorf("database unavailable")
	ErrConflict            = fmt.Errorf("unique constraint conflict")
	ErrEntryNotFound       = fmt.Errorf("entry not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

package domain

import "errors"

var (
	// ErrUpstreamFormatChange means the archive listing no longer looks the way
	// the fetcher expects: too few report links, or none left after date
	// deduplication. The run cannot continue.
	ErrUpstreamFormatChange = errors.New("upstream format change")

	// ErrMalformedRow means a report row is too short, lacks a consumed
	// column, or carries a value that is not a non-negative number.
	ErrMalformedRow = errors.New("malformed row")
)

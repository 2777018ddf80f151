package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingColumn is returned when a required column is absent from a source file
	ErrMissingColumn = errors.New("required column missing")

	// ErrEmptyCatalog is returned when a catalog source holds no usable records
	ErrEmptyCatalog = errors.New("reference catalog is empty")

	// ErrOracleFailure is returned when a decision oracle call fails
	ErrOracleFailure = errors.New("decision oracle request failed")

	// ErrMalformedResponse is returned when the oracle answer cannot be used
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoMatch is returned when a product resolved to no reference record
	ErrNoMatch = errors.New("no matching reference record")

	// ErrUnknownProfile is returned for an unsupported disease profile
	ErrUnknownProfile = errors.New("unknown disease profile")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

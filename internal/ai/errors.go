package ai

import "errors"

var (
	// ErrExtractionFailed indicates the provider response stayed unusable
	// after repair and retry. Distinct from transport and validation errors.
	ErrExtractionFailed = errors.New("ai extraction failed")

	// ErrLowConfidence indicates a structurally valid result below the
	// acceptance threshold.
	ErrLowConfidence = errors.New("extraction confidence below threshold")

	// ErrPlaceholderResult indicates the result consists of injected
	// placeholders rather than recognized content.
	ErrPlaceholderResult = errors.New("extraction produced only placeholders")

	// ErrProviderResponse indicates a malformed or empty provider reply at
	// the transport level.
	ErrProviderResponse = errors.New("invalid provider response")
)

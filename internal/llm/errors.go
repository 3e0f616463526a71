package llm

import "errors"

var (
	// ErrMalformedDecision indicates the model returned output that could
	// not be parsed into a valid political decision.
	ErrMalformedDecision = errors.New("malformed decision")

	// ErrScoringUnavailable indicates the model judge could not produce a
	// score for a challenge response.
	ErrScoringUnavailable = errors.New("scoring unavailable")
)

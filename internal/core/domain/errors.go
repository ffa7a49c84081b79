package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedSource indicates an unknown collector type.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrAuthRequired indicates a provider needs credentials but none
	// are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the completion service is not
	// configured. Synthesis is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrNoArrayFound indicates a completion contained no parseable
	// JSON array. The batch is discarded, never retried.
	ErrNoArrayFound = errors.New("no JSON array in completion")

	// ErrEmptyCorpus indicates an assembly was attempted with no input
	// examples.
	ErrEmptyCorpus = errors.New("empty corpus")
)

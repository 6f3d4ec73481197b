package domain

import "errors"

var (
	// ErrInvalidArgument signals a request rejected before any external call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch signals vectors of different dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrCompletionUnavailable signals a completion provider failure.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
)

package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")

	// ErrUpstream marks failures of the embedding, vector index, or generation
	// collaborators, so callers can tell them apart from local faults.
	ErrUpstream = errors.New("upstream collaborator failure")
)

func wrapUpstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

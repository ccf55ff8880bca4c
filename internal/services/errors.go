// Package services holds the mutation and query logic behind the HTTP
// handlers: authorization checks, counters, cascades and notification fan-out.
package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/spotlight/backend/internal/repositories"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid request")
	ErrRateLimited = errors.New("too many requests")
)

// notFoundAs turns a repository not-found into ErrNotFound naming what was missing
func notFoundAs(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalid)
}

func forbidden(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrForbidden)
}

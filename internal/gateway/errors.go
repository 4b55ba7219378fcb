package gateway

import (
	"errors"
	"fmt"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

// wrapUnavailable annotates err so callers can match apperr.ErrGatewayUnavailable.
func wrapUnavailable(msg string, err error) error {
	if errors.Is(err, apperr.ErrGatewayUnavailable) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	return fmt.Errorf("%s: %w: %w", msg, apperr.ErrGatewayUnavailable, err)
}

// classify keeps caller errors (blank message, unknown session) as they are
// and marks everything else as a gateway failure.
func classify(msg string, err error) error {
	if errors.Is(err, apperr.ErrEmptyAnswer) || errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	return wrapUnavailable(msg, err)
}

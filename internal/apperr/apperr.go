// Package apperr holds the error taxonomy shared by the wizard, the gateway
// adapters and the HTTP surface.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrUnknownStoryType is returned when a story type id is not in the catalog.
	ErrUnknownStoryType = errors.New("unknown story type")
	// ErrInvalidState is returned when an operation is issued in a wizard or
	// recording state that does not permit it.
	ErrInvalidState = errors.New("operation not permitted in current state")
	// ErrDeviceUnavailable is returned when the capture device cannot be acquired.
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")
	// ErrGatewayUnavailable is returned when a remote AI call fails or times out.
	ErrGatewayUnavailable = errors.New("ai gateway unavailable")
	// ErrEmptyAnswer marks a blank answer or message submission.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.New("not found")
)

// Kind is a short machine-readable code for an error, used in API responses.
type Kind string

const (
	KindUnknownStoryType   Kind = "unknown_story_type"
	KindInvalidState       Kind = "invalid_state"
	KindDeviceUnavailable  Kind = "device_unavailable"
	KindGatewayUnavailable Kind = "gateway_unavailable"
	KindEmptyAnswer        Kind = "empty_answer"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindInternal           Kind = "internal_error"
)

var kinds = []struct {
	err    error
	kind   Kind
	status int
}{
	{ErrUnknownStoryType, KindUnknownStoryType, http.StatusBadRequest},
	{ErrInvalidState, KindInvalidState, http.StatusConflict},
	{ErrDeviceUnavailable, KindDeviceUnavailable, http.StatusServiceUnavailable},
	{ErrGatewayUnavailable, KindGatewayUnavailable, http.StatusBadGateway},
	{ErrEmptyAnswer, KindEmptyAnswer, http.StatusBadRequest},
	{ErrInvalidInput, KindInvalidInput, http.StatusBadRequest},
	{ErrNotFound, KindNotFound, http.StatusNotFound},
}

// KindOf classifies err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindInternal
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}

	return http.StatusInternalServerError
}

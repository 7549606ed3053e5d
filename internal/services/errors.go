package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AdapterError reports a document-level failure in rasterization, text
// extraction or another local preparation step.
type AdapterError struct {
	Stage string
	Err   error
}

func (e *AdapterError) Error() string { return fmt.Sprintf("%s failed: %v", e.Stage, e.Err) }
func (e *AdapterError) Unwrap() error { return e.Err }

// InferenceError reports a failed generation or embedding call.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("inference %s failed: %v", e.Op, e.Err) }
func (e *InferenceError) Unwrap() error { return e.Err }

// PersistenceError reports a failed result store write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("failed to persist page result: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a malformed request; no processing is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var transientHTTPCodes = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var transientGRPCCodes = map[codes.Code]bool{
	codes.Unavailable:       true,
	codes.ResourceExhausted: true,
	codes.DeadlineExceeded:  true,
	codes.Aborted:           true,
	codes.Internal:          true,
}

// IsTransient reports whether err is worth retrying. Cancellation never is.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return transientHTTPCodes[gerr.Code]
	}
	if s, ok := status.FromError(err); ok {
		return transientGRPCCodes[s.Code()]
	}
	return false
}

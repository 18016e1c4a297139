package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError is a network or HTTP failure talking to an external service.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed: no response at
// all, 429, or a 5xx status.
func (e *TransportError) Retryable() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// InsufficientDataError means a window asked for more points than exist.
type InsufficientDataError struct {
	What     string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d, have %d", e.What, e.Required, e.Actual)
}

// MalformedResponseError means a provider response lacked expected fields.
type MalformedResponseError struct {
	Op     string
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Detail)
}

// ReconciliationAmbiguityError describes several external rows sharing one
// pair name. Reconciliation resolves these last-seen-wins, so it is only
// used for reporting.
type ReconciliationAmbiguityError struct {
	Pair    string
	Handles []string
}

func (e *ReconciliationAmbiguityError) Error() string {
	return fmt.Sprintf("pair %s maps to %d rows: %s", e.Pair, len(e.Handles), strings.Join(e.Handles, ", "))
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}

func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// IsRetryable reports whether err wraps a retryable TransportError.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable()
}

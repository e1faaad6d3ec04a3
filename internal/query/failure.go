package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/five82/tally/internal/posapi"
)

// Failure is the normalized error returned by every remote query.
type Failure struct {
	Op    string
	Cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Canceled reports whether the failure came from context cancellation or a deadline.
func (f *Failure) Canceled() bool {
	return errors.Is(f.Cause, context.Canceled) || errors.Is(f.Cause, context.DeadlineExceeded)
}

func wrap(op string, err error) error {
	var existing *Failure
	if errors.As(err, &existing) {
		return err
	}
	return &Failure{Op: op, Cause: err}
}

// Message renders err as one line suitable for a status bar. It prefers the
// backend's detail message over the raw transport chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *posapi.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Detail != "":
			return apiErr.Detail
		case apiErr.Status == http.StatusUnauthorized:
			return "Session expired, please log in again"
		case apiErr.Status == http.StatusForbidden:
			return "You do not have permission for this action"
		default:
			return fmt.Sprintf("Server returned %d", apiErr.Status)
		}
	}
	var failure *Failure
	if errors.As(err, &failure) {
		if failure.Canceled() {
			return "Request cancelled"
		}
		return "Failed to " + strings.ReplaceAll(failure.Op, "_", " ")
	}
	return err.Error()
}

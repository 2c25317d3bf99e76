package reservation

import (
	"errors"
	"fmt"
)

// ErrUnknownStudent is returned when the student is not in the directory.
var ErrUnknownStudent = errors.New("unknown student")

// Reason is the error code the server attaches to a rejected request.
type Reason string

const (
	ReasonOccupied          Reason = "occupied"
	ReasonNoShowBlocked     Reason = "no_show_blocked"
	ReasonReservationClosed Reason = "reservation_closed"
	ReasonAlreadyReserved   Reason = "already_reserved"
	ReasonNotReserved       Reason = "not_reserved"
	ReasonNotFound          Reason = "not_found"
	ReasonInvalidRequest    Reason = "invalid_request"
	ReasonRateLimited       Reason = "rate_limited"
)

// RejectionError is a request the server understood and refused.
type RejectionError struct {
	Reason      Reason
	Message     string
	NoShowCount int
	StatusCode  int
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rejected: %s", e.Reason)
	}
	return fmt.Sprintf("rejected: %s: %s", e.Reason, e.Message)
}

// TransportError is a failure to get any answer from the server. The
// outcome of the request is unknown and it may be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transport failure.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is a server rejection with one of reasons,
// or any rejection when no reasons are given.
func IsRejected(err error, reasons ...Reason) bool {
	var re *RejectionError
	if !errors.As(err, &re) {
		return false
	}
	if len(reasons) == 0 {
		return true
	}
	for _, r := range reasons {
		if re.Reason == r {
			return true
		}
	}
	return false
}

func remoteError(op string, err error) error {
	var re *RejectionError
	if errors.As(err, &re) {
		return re
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Op: op, Err: err}
}

// Package analysis holds the submission/response lifecycle for a single
// topic analysis: the topic input, the session state machine and the view
// selection derived from it.
package analysis

import (
	"encoding/json"
	"errors"
	"time"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrTransport         = errors.New("analysis endpoint unreachable")
	ErrUnexpectedStatus  = errors.New("analysis endpoint returned non-2xx status")
	ErrMalformedResponse = errors.New("analysis response is not valid JSON")
	ErrAnalysisRejected  = errors.New("analysis reported failure")
)

type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransport
	FailureStatus
	FailureMalformed
	FailureRejected
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "status"
	case FailureMalformed:
		return "malformed"
	case FailureRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ClassifyFailure maps an error produced by an Analyzer onto the failure
// taxonomy. Errors that wrap none of the package sentinels count as
// transport failures.
func ClassifyFailure(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrAnalysisRejected):
		return FailureRejected
	case errors.Is(err, ErrMalformedResponse):
		return FailureMalformed
	case errors.Is(err, ErrUnexpectedStatus):
		return FailureStatus
	default:
		return FailureTransport
	}
}

// Attempt is the record of the most recently started analysis. Payload and
// SavedTo are only set when Status is StatusSucceeded; Failure only when
// Status is StatusFailed.
type Attempt struct {
	ID          string
	Generation  uint64
	Topic       string
	Status      Status
	Payload     json.RawMessage
	SavedTo     string
	Failure     error
	FailureKind FailureKind
	StartedAt   time.Time
	SettledAt   time.Time
}

// FailureReason returns the human-readable failure text, or "" when the
// attempt has not failed.
func (a Attempt) FailureReason() string {
	if a.Status != StatusFailed || a.Failure == nil {
		return ""
	}
	return a.Failure.Error()
}

func (a Attempt) Settled() bool {
	return a.Status == StatusSucceeded || a.Status == StatusFailed
}

// Response mirrors the analysis endpoint body.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	SavedTo string          `json:"saved_to"`
}

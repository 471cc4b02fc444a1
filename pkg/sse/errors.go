package sse

import "fmt"

type ErrorKind string

const (
	KindTransport     ErrorKind = "TRANSPORT_ERROR"
	KindRateLimited   ErrorKind = "RATE_LIMITED"
	KindQuotaExceeded ErrorKind = "QUOTA_EXCEEDED"
	KindInterrupted   ErrorKind = "STREAM_INTERRUPTED"
	KindCanceled      ErrorKind = "STREAM_CANCELED"
)

// User-facing copy for each terminal error kind.
const (
	MessageTransport     = "Could not connect to the assistant. Please check your connection and try again."
	MessageRateLimited   = "Rate limit exceeded. Please wait a moment and try again."
	MessageQuotaExceeded = "Payment required. Please add credits to your workspace to keep using the assistant."
	MessageInterrupted   = "The assistant response was interrupted before it finished."
	MessageCanceled      = "The assistant response was canceled."
)

// Sentinels for errors.Is. RateLimited and QuotaExceeded also match ErrTransport.
var (
	ErrTransport     = &StreamError{Kind: KindTransport}
	ErrRateLimited   = &StreamError{Kind: KindRateLimited}
	ErrQuotaExceeded = &StreamError{Kind: KindQuotaExceeded}
	ErrInterrupted   = &StreamError{Kind: KindInterrupted}
	ErrCanceled      = &StreamError{Kind: KindCanceled}
)

// StreamError is the only error type a Sink ever receives.
type StreamError struct {
	Kind ErrorKind
	// Status is the HTTP status that caused the error, 0 when not status related.
	Status int
	// Partial reports that some deltas were delivered before the failure.
	Partial bool
	Err     error
}

// Message returns the fixed user-facing text for the error kind.
func (e *StreamError) Message() string {
	switch e.Kind {
	case KindRateLimited:
		return MessageRateLimited
	case KindQuotaExceeded:
		return MessageQuotaExceeded
	case KindInterrupted:
		return MessageInterrupted
	case KindCanceled:
		return MessageCanceled
	default:
		return MessageTransport
	}
}

func (e *StreamError) Error() string {
	msg := e.Message()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func (e *StreamError) Is(target error) bool {
	t, ok := target.(*StreamError)
	if !ok {
		return false
	}
	if t.Kind == KindTransport {
		return e.Kind == KindTransport || e.Kind == KindRateLimited || e.Kind == KindQuotaExceeded
	}
	return t.Kind == e.Kind
}

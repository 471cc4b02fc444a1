package sse

import (
	"context"
	"io"
	"net/http"
)

// CheckResponse classifies a response before any body byte is consumed.
func CheckResponse(resp *http.Response) error {
	if resp == nil {
		return &StreamError{Kind: KindTransport}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &StreamError{Kind: KindRateLimited, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusPaymentRequired:
		return &StreamError{Kind: KindQuotaExceeded, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StreamError{Kind: KindTransport, Status: resp.StatusCode}
	case resp.Body == nil || resp.Body == http.NoBody:
		return &StreamError{Kind: KindTransport, Status: resp.StatusCode}
	}
	return nil
}

// DecodeResponse decodes resp.Body after the status short-circuit. On a
// rejected response only sink.OnError is called. The body is always closed.
func (d *Decoder) DecodeResponse(ctx context.Context, resp *http.Response, sink Sink) error {
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err := CheckResponse(resp); err != nil {
		if resp != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		}
		sink.OnError(err)
		return err
	}
	return d.Decode(ctx, resp.Body, sink)
}

func DecodeResponse(ctx context.Context, resp *http.Response, sink Sink) error {
	return NewDecoder().DecodeResponse(ctx, resp, sink)
}

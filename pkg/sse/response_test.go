package sse

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeResponseStatusShortCircuit(t *testing.T) {
	stream := deltaLine("should not be read") + "data: [DONE]\n"

	tests := []struct {
		name    string
		resp    *http.Response
		want    *StreamError
		message string
	}{
		{"rate limited", response(http.StatusTooManyRequests, stream), ErrRateLimited, MessageRateLimited},
		{"quota exceeded", response(http.StatusPaymentRequired, `{"error":"credits"}`), ErrQuotaExceeded, MessageQuotaExceeded},
		{"server error", response(http.StatusBadGateway, stream), ErrTransport, MessageTransport},
		{"missing body", &http.Response{StatusCode: http.StatusOK}, ErrTransport, MessageTransport},
		{"nil response", nil, ErrTransport, MessageTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}

			err := DecodeResponse(context.Background(), tt.resp, rec)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrTransport)
			assert.Empty(t, rec.deltas)
			assert.Zero(t, rec.done)
			require.Len(t, rec.errs, 1)

			var streamErr *StreamError
			require.ErrorAs(t, rec.errs[0], &streamErr)
			assert.Equal(t, tt.message, streamErr.Message())
		})
	}
}

func TestDecodeResponseStreamsOK(t *testing.T) {
	rec := &recorder{}

	err := DecodeResponse(context.Background(), response(http.StatusOK, deltaLine("ok")+"data: [DONE]\n"), rec)

	require.NoError(t, err)
	assert.Equal(t, "ok", rec.text())
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, rec.errs)
}

func TestRateLimitIsNotQuota(t *testing.T) {
	err := CheckResponse(response(http.StatusTooManyRequests, ""))

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ErrInterrupted)
}

package factory

import (
	"context"
	"errors"
	"testing"

	"qms-compliance-be/pkg/llm/gateway"
	"qms-compliance-be/pkg/sse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamingProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		baseURL  string
		wantURL  string
		wantErr  bool
	}{
		{name: "gateway", provider: "gateway", baseURL: "https://ai.example/v1", wantURL: "https://ai.example/v1"},
		{name: "ollama default", provider: "ollama", wantURL: "http://localhost:11434/v1"},
		{name: "ollama already versioned", provider: "ollama", baseURL: "http://ollama:11434/v1/", wantURL: "http://ollama:11434/v1"},
		{name: "gateway without url", provider: "gateway", wantErr: true},
		{name: "unknown", provider: "gemini", baseURL: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewStreamingProvider(tt.provider, "m", tt.baseURL, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			gw, ok := p.(*gateway.Provider)
			require.True(t, ok)
			assert.Equal(t, tt.wantURL, gw.BaseURL)
		})
	}
}

func TestUnavailableReportsTransportError(t *testing.T) {
	var got error
	err := Unavailable(errors.New("no gateway configured")).Stream(context.Background(), nil, sse.SinkFuncs{
		Error: func(err error) { got = err },
	})
	assert.ErrorIs(t, err, sse.ErrTransport)
	assert.Equal(t, err, got)
}

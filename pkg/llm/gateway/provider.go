package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"qms-compliance-be/pkg/llm"
	"qms-compliance-be/pkg/sse"
)

// Provider streams chat completions from any OpenAI-compatible
// /chat/completions endpoint (AI gateway, OpenRouter, vLLM, Ollama /v1, ...).
type Provider struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client
	Decoder   *sse.Decoder
}

// Ensure Provider implements StreamingProvider
var _ llm.StreamingProvider = &Provider{}

// NewProvider builds a gateway provider. baseURL should include any version
// prefix, e.g. "https://ai.gateway.example/v1".
func NewProvider(baseURL, apiKey, modelName string, decoderOpts ...sse.Option) *Provider {
	return &Provider{
		BaseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:    strings.TrimSpace(apiKey),
		ModelName: strings.TrimSpace(modelName),
		// No client timeout: a stream may legitimately outlive any fixed
		// deadline. Callers bound it through ctx.
		Client:  &http.Client{},
		Decoder: sse.NewDecoder(decoderOpts...),
	}
}

// --- Request structs (Internal to this package) ---

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (p *Provider) Stream(ctx context.Context, history []llm.Message, sink sse.Sink, opts ...llm.Option) error {
	options := llm.ApplyOptions(llm.Options{Model: p.ModelName}, opts...)

	messages := make([]llm.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = llm.Message{Role: role, Content: msg.Content}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       options.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return p.transportError(sink, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return p.transportError(sink, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	start := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			streamErr := &sse.StreamError{Kind: sse.KindCanceled, Err: ctx.Err()}
			sink.OnError(streamErr)
			return streamErr
		}
		return p.transportError(sink, fmt.Errorf("gateway request failed after %s: %w", time.Since(start).Round(time.Millisecond), err))
	}

	return p.Decoder.DecodeResponse(ctx, resp, sink)
}

func (p *Provider) transportError(sink sse.Sink, err error) error {
	streamErr := &sse.StreamError{Kind: sse.KindTransport, Err: err}
	sink.OnError(streamErr)
	return streamErr
}

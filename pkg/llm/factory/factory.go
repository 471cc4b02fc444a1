package factory

import (
	"context"
	"fmt"
	"strings"

	"qms-compliance-be/pkg/llm"
	"qms-compliance-be/pkg/llm/gateway"
	"qms-compliance-be/pkg/sse"
)

func NewStreamingProvider(providerType, modelName, baseURL, apiKey string, decoderOpts ...sse.Option) (llm.StreamingProvider, error) {
	switch providerType {
	case "gateway", "openai":
		if baseURL == "" {
			return nil, fmt.Errorf("%s provider requires a base URL", providerType)
		}
		return gateway.NewProvider(baseURL, apiKey, modelName, decoderOpts...), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		// Ollama exposes the OpenAI-compatible streaming API under /v1.
		baseURL = strings.TrimRight(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL += "/v1"
		}
		return gateway.NewProvider(baseURL, apiKey, modelName, decoderOpts...), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// Unavailable answers every stream with a transport error. It stands in when
// no provider could be configured so the rest of the API still starts.
func Unavailable(reason error) llm.StreamingProvider {
	return unavailableProvider{reason: reason}
}

type unavailableProvider struct {
	reason error
}

func (p unavailableProvider) Stream(ctx context.Context, history []llm.Message, sink sse.Sink, options ...llm.Option) error {
	err := &sse.StreamError{Kind: sse.KindTransport, Err: p.reason}
	sink.OnError(err)
	return err
}

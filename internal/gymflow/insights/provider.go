// Package insights asks a language model for a trainer style analysis of a
// member's history and imports workouts from photographed paper logs.
package insights

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultMaxTokens = 2048
	defaultTimeout   = 90 * time.Second
)

var (
	ErrMissingAPIKey    = errors.New("llm api key missing")
	ErrUnknownProvider  = errors.New("unknown llm provider")
	ErrEmptyCompletion  = errors.New("llm returned no content")
	ErrProviderDisabled = errors.New("llm provider not configured")
)

// Image is an inline picture sent along with a prompt.
type Image struct {
	MediaType string
	Data      []byte
}

func (i *Image) base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i *Image) dataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MediaType, i.base64())
}

type CompletionRequest struct {
	System    string
	Prompt    string
	Image     *Image
	MaxTokens int
}

// Provider is a chat model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type ProviderConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	// Transport defaults to http.DefaultTransport, wrapped with otelhttp.
	Transport http.RoundTripper
}

func (c ProviderConfig) httpClient() *http.Client {
	transport := c.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

func (c ProviderConfig) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}

func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderAnthropic, "claude", "":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: openai, anthropic)", ErrUnknownProvider, cfg.Provider)
	}
}

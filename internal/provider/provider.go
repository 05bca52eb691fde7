// Package provider binds a provider credential and endpoint to named
// remote models.
//
// A [Binding] holds the credential and base URL for an OpenAI-compatible
// chat completions endpoint (Gemini's compatibility path by default) and
// owns the configured HTTP client. A [Model] pairs a binding with a model
// identifier. Both are immutable after construction; invalid input is a
// construction-time failure, never a runtime one.
package provider

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	// ErrMissingCredential indicates an empty API key.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrInvalidEndpoint indicates an unparseable or non-HTTP base URL.
	ErrInvalidEndpoint = errors.New("invalid provider endpoint")

	// ErrMissingModelName indicates an empty model identifier.
	ErrMissingModelName = errors.New("missing model name")
)

// Binding pairs a credential with a base endpoint URL and the client
// configured for both. Immutable after construction.
type Binding struct {
	baseURL string
	client  openai.Client
}

// New creates a Binding. The credential and endpoint are validated here
// so every later use can assume a well-formed binding.
func New(apiKey, baseURL string) (*Binding, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, baseURL)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)

	return &Binding{baseURL: baseURL, client: client}, nil
}

// BaseURL returns the endpoint base URL.
func (b *Binding) BaseURL() string {
	return b.baseURL
}

// Client returns the configured chat completions client.
func (b *Binding) Client() openai.Client {
	return b.client
}

// Model binds a provider to a specific named remote model: "which remote
// model answers requests". Immutable.
type Model struct {
	binding *Binding
	name    string
}

// NewModel creates a Model on the given binding.
func NewModel(binding *Binding, name string) (*Model, error) {
	if binding == nil {
		return nil, errors.New("binding is required")
	}
	if name == "" {
		return nil, ErrMissingModelName
	}
	return &Model{binding: binding, name: name}, nil
}

// Name returns the model identifier (e.g., "gemini-2.5-flash").
func (m *Model) Name() string {
	return m.name
}

// Binding returns the provider binding this model answers through.
func (m *Model) Binding() *Binding {
	return m.binding
}

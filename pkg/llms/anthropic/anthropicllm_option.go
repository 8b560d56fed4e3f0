package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go/option"
)

// TokenEnvVarName is the environment variable with the API key,
// used when WithToken is not provided.
const TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec

// Options of the Anthropic client
type Options struct {
	Token   string
	Model   string
	BaseURL string
	// HTTPClient is http.DefaultClient by default
	HTTPClient option.HTTPClient
	// MaxRetries of the SDK on transient errors, 2 by default
	MaxRetries int
}

// Option configures the client created by New.
type Option func(*Options)

// WithToken sets the API key.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *Options) { o.HTTPClient = client }
}

// WithMaxRetries sets the number of retries, 0 disables them.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

package googleai

import (
	"net/http"
	"os"

	"cloud.google.com/go/auth"
	"google.golang.org/genai"
)

const (
	// APIKeyEnvVarName is the environment variable read when no API key is configured.
	APIKeyEnvVarName = "GEMINI_API_KEY" //nolint:gosec
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash"
)

// Options is a set of options for GoogleAI and Vertex clients.
type Options struct {
	CloudProject     string
	CloudLocation    string
	DefaultModel     string
	DefaultMaxTokens int
	HarmThreshold    genai.HarmBlockThreshold
	APIKey           string
	BaseURL          string
	Credentials      *auth.Credentials
	HTTPClient       *http.Client
}

// DefaultOptions returns the default Options.
func DefaultOptions() Options {
	return Options{
		DefaultModel:  DefaultModel,
		HarmThreshold: genai.HarmBlockThresholdBlockOnlyHigh,
	}
}

// EnsureAuthPresent falls back to the GEMINI_API_KEY environment variable
// when neither credentials nor an API key are configured.
func (o *Options) EnsureAuthPresent() {
	if o.Credentials == nil && o.APIKey == "" {
		o.APIKey = os.Getenv(APIKeyEnvVarName)
	}
}

// UseVertex returns true when the client should use the Vertex AI backend.
func (o *Options) UseVertex() bool {
	return o.CloudProject != "" && o.APIKey == ""
}

type Option func(*Options)

// WithAPIKey passes the API KEY (token) to the client.
func WithAPIKey(apiKey string) Option {
	return func(opts *Options) {
		opts.APIKey = apiKey
	}
}

// WithCredentials sets the service account or user credentials for Vertex AI.
func WithCredentials(credentials *auth.Credentials) Option {
	return func(opts *Options) {
		if credentials == nil {
			return
		}
		opts.Credentials = credentials
	}
}

// WithHTTPClient uses the provided HTTP client to make requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

// WithCloudProject passes the GCP cloud project name to the client.
// Setting a project without an API key selects the Vertex AI backend.
func WithCloudProject(p string) Option {
	return func(opts *Options) {
		opts.CloudProject = p
	}
}

// WithCloudLocation passes the GCP cloud location (region) name to the client.
func WithCloudLocation(l string) Option {
	return func(opts *Options) {
		opts.CloudLocation = l
	}
}

// WithDefaultModel passes a default content model name to the client. This
// model name is used if not explicitly provided in specific client invocations.
func WithDefaultModel(defaultModel string) Option {
	return func(opts *Options) {
		opts.DefaultModel = defaultModel
	}
}

// WithDefaultMaxTokens sets the maximum token count for the model.
func WithDefaultMaxTokens(maxTokens int) Option {
	return func(opts *Options) {
		opts.DefaultMaxTokens = maxTokens
	}
}

// WithHarmThreshold sets the safety/harm setting for the model, potentially
// limiting any harmful content it may generate.
func WithHarmThreshold(ht genai.HarmBlockThreshold) Option {
	return func(opts *Options) {
		opts.HarmThreshold = ht
	}
}

package openai

import (
	"github.com/effective-security/searchagent/pkg/llms/openai/internal/openaiclient"
)

// Environment variables read by New for the options not set explicitly.
// The base URL falls back to OPENAI_API_BASE, then to the public endpoint.
const (
	tokenEnvVarName        = "OPENAI_API_KEY" //nolint:gosec
	modelEnvVarName        = "OPENAI_MODEL"
	baseURLEnvVarName      = "OPENAI_BASE_URL"
	baseAPIBaseEnvVarName  = "OPENAI_API_BASE"
	organizationEnvVarName = "OPENAI_ORGANIZATION"
)

// ProviderType selects between OpenAI and Azure OpenAI.
type ProviderType = openaiclient.ProviderType

// Supported providers
const (
	ProviderOpenAI  = openaiclient.ProviderOpenAI
	ProviderAzure   = openaiclient.ProviderAzure
	ProviderAzureAD = openaiclient.ProviderAzureAD
)

// DefaultAPIVersion is the Azure API version used when not configured.
const DefaultAPIVersion = "2023-05-15"

// Doer sends HTTP requests, *http.Client implements it.
type Doer = openaiclient.Doer

type options struct {
	provider     ProviderType
	token        string
	model        string
	baseURL      string
	organization string
	// apiVersion is used by Azure only
	apiVersion string
	httpClient Doer
}

// Option configures the client created by New.
type Option func(*options)

// WithProvider sets the provider, ProviderOpenAI by default.
func WithProvider(provider ProviderType) Option {
	return func(o *options) { o.provider = provider }
}

// WithToken sets the API key.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithModel sets the default model, on Azure it's the deployment name.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithBaseURL sets the endpoint, for example of a compatible server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithOrganization sets the OpenAI organization header.
func WithOrganization(organization string) Option {
	return func(o *options) { o.organization = organization }
}

// WithAPIVersion sets the Azure API version.
func WithAPIVersion(apiVersion string) Option {
	return func(o *options) { o.apiVersion = apiVersion }
}

// WithHTTPClient sets the HTTP client, http.DefaultClient by default.
func WithHTTPClient(client Doer) Option {
	return func(o *options) { o.httpClient = client }
}

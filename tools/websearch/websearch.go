package websearch

import (
	"context"
	"reflect"
	"time"

	"github.com/effective-security/searchagent/pkg/metricskey"
	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/effective-security/searchagent/tools/websearch/google"
	"github.com/effective-security/searchagent/tools/websearch/tavily"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -source=websearch.go -destination=../../mocks/mockwebsearch/websearch_mock.gen.go  -package mockwebsearch

var logger = xlog.NewPackageLogger("github.com/effective-security/searchagent", "websearch")

const (
	// ToolName is the name of the function declared to the model
	ToolName = "search_web"
	// ToolDescription is the description of the function declared to the model
	ToolDescription = "search the web for the user and provide the search report."
)

// Request is the arguments of the search_web function
type Request struct {
	Query string `json:"query" yaml:"query" jsonschema:"description=query to search"`
}

// Result is the ordered list of items returned by the search provider,
// each item is a provider specific mapping, for example title, link and snippet.
type Result []map[string]any

// Credentials to access the search provider
type Credentials struct {
	APIKey         string `json:"-" yaml:"-"`
	SearchEngineID string `json:"search_engine_id,omitempty" yaml:"search_engine_id,omitempty"`
}

// Provider is the search engine client
type Provider interface {
	// Name returns the name of the provider
	Name() string
	// Search returns the items found for the query
	Search(ctx context.Context, query string) ([]map[string]any, error)
}

// ProviderFactory creates a provider client for the credentials
type ProviderFactory func(ctx context.Context, creds Credentials) (Provider, error)

// GoogleProvider returns the factory of Google Custom Search clients
func GoogleProvider(opts ...google.Option) ProviderFactory {
	return func(ctx context.Context, creds Credentials) (Provider, error) {
		return google.New(ctx, creds.APIKey, creds.SearchEngineID, opts...)
	}
}

// TavilyProvider returns the factory of Tavily clients,
// the search engine ID is not used by Tavily.
func TavilyProvider(opts ...tavily.Option) ProviderFactory {
	return func(_ context.Context, creds Credentials) (Provider, error) {
		return tavily.New(creds.APIKey, opts...)
	}
}

// DescribeTool returns the declaration of the search_web function,
// with one required string parameter `query`.
func DescribeTool() *schema.FunctionSchema {
	return schema.MustFunctionSchema(ToolName, ToolDescription, reflect.TypeOf(Request{}))
}

// FunctionsConfig returns the wire form of the search_web declaration,
// keyed by the function name.
func FunctionsConfig() schema.FunctionsConfig {
	return schema.NewFunctionsConfig(DescribeTool())
}

// Search creates the provider client for the credentials,
// and returns the items found for the query.
// The errors of the provider are returned as is.
func Search(ctx context.Context, factory ProviderFactory, creds Credentials, query string) (Result, error) {
	provider, err := factory(ctx, creds)
	if err != nil {
		return nil, err
	}

	name := provider.Name()
	started := time.Now()
	items, err := provider.Search(ctx, query)
	metricskey.PerfSearch.MeasureSince(started, name)
	if err != nil {
		metricskey.StatsSearchFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "search",
			"provider", name,
			"err", err.Error(),
		)
		return nil, err
	}

	metricskey.StatsSearchResults.IncrCounter(float64(len(items)), name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "searched",
		"provider", name,
		"items", len(items),
	)

	if items == nil {
		return Result{}, nil
	}
	return Result(items), nil
}

package llmfactory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/pkg/llms/anthropic"
	"github.com/effective-security/searchagent/pkg/llms/bedrock"
	"github.com/effective-security/searchagent/pkg/llms/googleai"
	"github.com/effective-security/searchagent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/searchagent", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory creates and caches LLM models for backend configs.
type Factory interface {
	// ModelFor returns the model for the backend config.
	ModelFor(ctx context.Context, cfg *BackendConfig) (llms.Model, error)
}

type factory struct {
	models map[uint64]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory
func New() Factory {
	return &factory{
		models: make(map[uint64]llms.Model),
	}
}

func (f *factory) ModelFor(ctx context.Context, cfg *BackendConfig) (llms.Model, error) {
	if cfg == nil {
		return nil, errors.New("backend config is nil")
	}

	key, err := configKey(cfg)
	if err != nil {
		return nil, err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if model, ok := f.models[key]; ok {
		return model, nil
	}

	model, err := NewLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.DEBUG,
		"status", "created_llm",
		"type", cfg.NormalizedAPIType(),
		"version", cfg.APIVersion,
		"model", cfg.Model)

	f.models[key] = model
	return model, nil
}

func configKey(cfg *BackendConfig) (uint64, error) {
	js, err := json.Marshal(cfg)
	if err != nil {
		return 0, errors.Wrap(err, "failed to hash backend config")
	}
	return xxhash.Sum64(js), nil
}

// CreateLLM creates a model for the backend config.
func CreateLLM(ctx context.Context, cfg *BackendConfig) (llms.Model, error) {
	switch apiType := cfg.NormalizedAPIType(); apiType {
	case APITypeOpenAI:
		return newOpenAI(cfg)
	case APITypeAzure:
		return newAzure(cfg)
	case APITypeAnthropic:
		return newAnthropic(cfg)
	case APITypeGoogle:
		return newGoogleAI(ctx, cfg)
	case APITypeBedrock:
		return newBedrock(ctx, cfg)
	default:
		return nil, errors.Errorf("unsupported provider type: %s", apiType)
	}
}

func newOpenAI(cfg *BackendConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithProvider(openai.ProviderOpenAI),
		openai.WithModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func newAzure(cfg *BackendConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithProvider(openai.ProviderAzure),
		openai.WithModel(cfg.Model),
		openai.WithAPIVersion(cfg.APIVersion),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg *BackendConfig) (llms.Model, error) {
	opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, anthropic.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

func newGoogleAI(ctx context.Context, cfg *BackendConfig) (llms.Model, error) {
	var opts []googleai.Option
	if cfg.Model != "" {
		opts = append(opts, googleai.WithDefaultModel(cfg.Model))
	}
	if cfg.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Project != "" {
		opts = append(opts, googleai.WithCloudProject(cfg.Project), googleai.WithCloudLocation(cfg.Region))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(cfg.MaxTokens))
	}
	return googleai.New(ctx, opts...)
}

func newBedrock(ctx context.Context, cfg *BackendConfig) (llms.Model, error) {
	var opts []bedrock.Option
	if cfg.Model != "" {
		opts = append(opts, bedrock.WithModel(cfg.Model))
	}
	if cfg.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Region))
	}
	return bedrock.New(ctx, opts...)
}

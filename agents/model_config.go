package agents

import (
	"github.com/effective-security/searchagent/pkg/llmfactory"
	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/effective-security/searchagent/tools/websearch"
)

// ModelConfig is the model configuration of the agent:
// the function declarations, the backends and the reply timeout.
type ModelConfig struct {
	Tools          []schema.FunctionsConfig    `json:"tools" yaml:"tools"`
	BackendConfigs []*llmfactory.BackendConfig `json:"backendConfigs" yaml:"backendConfigs"`
	TimeoutSeconds *int                        `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// BuildModelConfig returns the model configuration with the `search_web`
// declaration. The backend configs are not validated.
func BuildModelConfig(backendConfigs []*llmfactory.BackendConfig, timeoutSeconds *int) *ModelConfig {
	if backendConfigs == nil {
		backendConfigs = []*llmfactory.BackendConfig{}
	}
	return &ModelConfig{
		Tools:          []schema.FunctionsConfig{websearch.FunctionsConfig()},
		BackendConfigs: backendConfigs,
		TimeoutSeconds: timeoutSeconds,
	}
}

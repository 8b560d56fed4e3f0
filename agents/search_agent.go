package agents

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/effective-security/searchagent/tools/websearch"
)

// DefaultSystemMessage is the system message of the search agent
const DefaultSystemMessage = "You are a helpful AI assistant that searches web and generates report.\n"

// SearchAgent is the agent that searches the web for the user,
// with the `search_web` tool bound to the search provider credentials.
type SearchAgent struct {
	*ConversableAgent

	APIKey         string
	SearchEngineID string
}

var _ Participant = (*SearchAgent)(nil)

// NewSearchAgent returns the search agent.
// By default it uses DefaultSystemMessage, never asks for human input,
// and has no backends, the backends are set with WithBackendConfigs.
func NewSearchAgent(name, apiKey, searchEngineID string, opts ...Option) (*SearchAgent, error) {
	all := append([]Option{
		WithSystemMessage(DefaultSystemMessage),
		WithHumanInputMode(HumanInputNever),
		WithCodeExecution(false),
	}, opts...)
	// the tool and the model are bound after all the options are applied
	all = append(all, func(c *Config) {
		mc := c.ensureModelConfig()
		c.ModelConfig = BuildModelConfig(mc.BackendConfigs, mc.TimeoutSeconds)
		c.FunctionMap = websearch.BuildFunctionMap(apiKey, searchEngineID, c.SearchOptions...)
	})

	base, err := NewConversableAgent(name, all...)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create search agent")
	}

	return &SearchAgent{
		ConversableAgent: base,
		APIKey:           apiKey,
		SearchEngineID:   searchEngineID,
	}, nil
}

// DescribeTool returns the declaration of the `search_web` function
func (a *SearchAgent) DescribeTool() *schema.FunctionSchema {
	return websearch.DescribeTool()
}

package agents

import (
	"strings"

	"github.com/effective-security/searchagent/pkg/llmfactory"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/store"
	"github.com/effective-security/searchagent/tools"
	"github.com/effective-security/searchagent/tools/websearch"
)

const (
	// DefaultMaxConsecutiveAutoReply is the limit of automatic replies
	// to the same sender, when not configured
	DefaultMaxConsecutiveAutoReply = 100
	// DefaultMaxToolCalls is the limit of tool calls in one reply
	DefaultMaxToolCalls = 10
	// TerminateMessage is the content of the default termination message
	TerminateMessage = "TERMINATE"
)

// Option configures the agent
type Option func(*Config)

// Config of the agent
type Config struct {
	Name           string         `validate:"required"`
	SystemMessage  string         `validate:"-"`
	HumanInputMode HumanInputMode `validate:"oneof=ALWAYS TERMINATE NEVER"`
	// MaxConsecutiveAutoReply is the limit of automatic replies to the same sender,
	// DefaultMaxConsecutiveAutoReply if not set
	MaxConsecutiveAutoReply *int `validate:"omitempty,gte=0"`
	MaxToolCalls            int  `validate:"gte=0"`
	// DefaultAutoReply is the reply when the agent has no backends
	DefaultAutoReply string
	// CodeExecution is not supported, and must be false
	CodeExecution bool

	IsTerminationMsg func(llms.Message) bool `validate:"-"`
	HumanInput       HumanInputFunc          `validate:"-"`

	ModelConfig *ModelConfig       `validate:"-"`
	FunctionMap tools.FunctionMap  `validate:"-"`
	Store       store.MessageStore `validate:"-"`
	Callback    Callback           `validate:"-"`
	Factory     llmfactory.Factory `validate:"-"`

	// SearchOptions are used to bind the `search_web` tool
	SearchOptions []websearch.Option `validate:"-"`
}

// WithSystemMessage sets the system message
func WithSystemMessage(msg string) Option {
	return func(c *Config) {
		c.SystemMessage = msg
	}
}

// WithHumanInputMode sets the human input mode
func WithHumanInputMode(mode HumanInputMode) Option {
	return func(c *Config) {
		c.HumanInputMode = mode
	}
}

// WithHumanInput sets the provider of the human replies
func WithHumanInput(fn HumanInputFunc) Option {
	return func(c *Config) {
		c.HumanInput = fn
	}
}

// WithMaxConsecutiveAutoReply sets the limit of automatic replies to the same sender
func WithMaxConsecutiveAutoReply(limit int) Option {
	return func(c *Config) {
		c.MaxConsecutiveAutoReply = &limit
	}
}

// WithMaxToolCalls sets the limit of tool calls in one reply
func WithMaxToolCalls(limit int) Option {
	return func(c *Config) {
		c.MaxToolCalls = limit
	}
}

// WithTerminationPredicate sets the function that detects the termination message
func WithTerminationPredicate(fn func(llms.Message) bool) Option {
	return func(c *Config) {
		c.IsTerminationMsg = fn
	}
}

// WithDefaultAutoReply sets the reply used when the agent has no backends
func WithDefaultAutoReply(reply string) Option {
	return func(c *Config) {
		c.DefaultAutoReply = reply
	}
}

// WithCodeExecution enables code execution, which is not supported
// and fails the agent creation.
func WithCodeExecution(enabled bool) Option {
	return func(c *Config) {
		c.CodeExecution = enabled
	}
}

// WithModelConfig sets the model configuration
func WithModelConfig(cfg *ModelConfig) Option {
	return func(c *Config) {
		c.ModelConfig = cfg
	}
}

// WithBackendConfigs sets the backends of the model configuration
func WithBackendConfigs(list []*llmfactory.BackendConfig) Option {
	return func(c *Config) {
		c.ensureModelConfig().BackendConfigs = list
	}
}

// WithTimeout sets the reply timeout in seconds
func WithTimeout(seconds int) Option {
	return func(c *Config) {
		c.ensureModelConfig().TimeoutSeconds = &seconds
	}
}

// WithFunctionMap sets the tools the model can call
func WithFunctionMap(m tools.FunctionMap) Option {
	return func(c *Config) {
		c.FunctionMap = m
	}
}

// WithStore sets the message store,
// by default the history is kept in memory.
func WithStore(st store.MessageStore) Option {
	return func(c *Config) {
		c.Store = st
	}
}

// WithCallback sets the events handler
func WithCallback(cb Callback) Option {
	return func(c *Config) {
		c.Callback = cb
	}
}

// WithFactory sets the models factory
func WithFactory(f llmfactory.Factory) Option {
	return func(c *Config) {
		c.Factory = f
	}
}

// WithSearchOptions sets the options of the `search_web` tool,
// for example the search provider.
func WithSearchOptions(opts ...websearch.Option) Option {
	return func(c *Config) {
		c.SearchOptions = append(c.SearchOptions, opts...)
	}
}

func (c *Config) ensureModelConfig() *ModelConfig {
	if c.ModelConfig == nil {
		c.ModelConfig = &ModelConfig{BackendConfigs: []*llmfactory.BackendConfig{}}
	}
	return c.ModelConfig
}

// IsTerminateMessage returns true if the content of the message is TERMINATE
func IsTerminateMessage(msg llms.Message) bool {
	return strings.TrimSpace(msg.GetContent()) == TerminateMessage
}

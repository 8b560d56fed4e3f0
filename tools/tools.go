package tools

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/effective-security/searchagent/pkg/metricskey"
	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go  -package mocktools

var logger = xlog.NewPackageLogger("github.com/effective-security/searchagent", "tools")

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Schema returns the function declaration of the tool.
	Schema() *schema.FunctionSchema

	// Call executes the tool with the JSON arguments chosen by the model,
	// and returns the JSON result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

// Callback receives the tool events
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// Tool is a typed tool
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (O, error)
}

// FunctionMap maps the tool name to the bound tool
type FunctionMap map[string]ITool

// NewFunctionMap returns FunctionMap of the provided tools
func NewFunctionMap(list ...ITool) FunctionMap {
	m := make(FunctionMap, len(list))
	for _, t := range list {
		m[t.Name()] = t
	}
	return m
}

// Names returns sorted names of the tools
func (m FunctionMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the tool by name, the lookup is case insensitive
func (m FunctionMap) Find(name string) (ITool, bool) {
	if t, ok := m[name]; ok {
		return t, true
	}
	for n, t := range m {
		if strings.EqualFold(n, name) {
			return t, true
		}
	}
	return nil, false
}

// FunctionsConfig returns the wire form of the declarations
func (m FunctionMap) FunctionsConfig() schema.FunctionsConfig {
	cfg := make(schema.FunctionsConfig, len(m))
	for name, t := range m {
		cfg[name] = t.Schema()
	}
	return cfg
}

// LLMTools returns the declarations in the form expected by the models,
// sorted by name
func (m FunctionMap) LLMTools() []llms.Tool {
	list := make([]llms.Tool, 0, len(m))
	for _, name := range m.Names() {
		list = append(list, ToLLMTool(m[name].Schema()))
	}
	return list
}

// ToLLMTool returns llms.Tool for the function schema
func ToLLMTool(fs *schema.FunctionSchema) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        fs.Name,
			Description: fs.Description,
			Parameters:  fs.Parameters,
		},
	}
}

// Call invokes the tool and reports the events to the callback.
// The error returned by the tool is returned as is.
func Call(ctx context.Context, tool ITool, input string, cb Callback) (string, error) {
	name := tool.Name()
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, name)

	if cb != nil {
		cb.OnToolStart(ctx, tool, input)
	}

	output, err := tool.Call(ctx, input)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_failed",
			"tool", name,
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnToolError(ctx, tool, input, err)
		}
		return "", err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	if cb != nil {
		cb.OnToolEnd(ctx, tool, input, output)
	}
	return output, nil
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions returns the names and descriptions of the tools,
// as JSON code block to be used in the prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}

package agents

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/chatmodel"
	"github.com/effective-security/searchagent/pkg/llmfactory"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/effective-security/searchagent/pkg/metricskey"
	"github.com/effective-security/searchagent/store"
	"github.com/effective-security/searchagent/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/searchagent", "agents")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrCodeExecutionNotSupported is returned when the agent is configured
// to execute code
var ErrCodeExecutionNotSupported = errors.New("code execution is not supported")

// ChatResult is the result of a conversation started by InitiateChat
type ChatResult struct {
	ChatID  string         `json:"chat_id" yaml:"chat_id"`
	History []llms.Message `json:"history" yaml:"history"`
	// Summary is the last message of the conversation
	Summary string `json:"summary" yaml:"summary"`
}

// ConversableAgent is the base conversation participant
type ConversableAgent struct {
	cfg Config

	lock       sync.Mutex
	autoReplys map[string]int
}

var _ Participant = (*ConversableAgent)(nil)

// NewConversableAgent returns the agent with validated configuration
func NewConversableAgent(name string, opts ...Option) (*ConversableAgent, error) {
	cfg := Config{
		Name:           name,
		HumanInputMode: HumanInputTerminate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.WithMessagef(err, "invalid agent config %q", name)
	}
	if cfg.CodeExecution {
		return nil, errors.WithMessagef(ErrCodeExecutionNotSupported, "invalid agent config %q", name)
	}

	if cfg.IsTerminationMsg == nil {
		cfg.IsTerminationMsg = IsTerminateMessage
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Callback == nil {
		cfg.Callback = NewNoopCallback()
	}
	if cfg.Factory == nil {
		cfg.Factory = llmfactory.New()
	}
	cfg.ensureModelConfig()

	return &ConversableAgent{
		cfg:        cfg,
		autoReplys: make(map[string]int),
	}, nil
}

func (a *ConversableAgent) Name() string {
	return a.cfg.Name
}

func (a *ConversableAgent) SystemMessage() string {
	return a.cfg.SystemMessage
}

// Config returns the agent configuration
func (a *ConversableAgent) Config() Config {
	return a.cfg
}

// ModelConfig returns the model configuration
func (a *ConversableAgent) ModelConfig() *ModelConfig {
	return a.cfg.ModelConfig
}

// FunctionMap returns the tools the model can call
func (a *ConversableAgent) FunctionMap() tools.FunctionMap {
	return a.cfg.FunctionMap
}

func (a *ConversableAgent) IsTerminationMessage(msg llms.Message) bool {
	return a.cfg.IsTerminationMsg(msg)
}

// ChatMessages returns the history of the conversation with the peer,
// in the chat from the context.
func (a *ConversableAgent) ChatMessages(ctx context.Context, peer Participant) ([]llms.Message, error) {
	return a.cfg.Store.Messages(ctx, historyKey(ctx, peer))
}

// historyKey returns the store key of the conversation with the peer
func historyKey(ctx context.Context, peer Participant) string {
	name := "user"
	if peer != nil {
		name = peer.Name()
	}
	return path.Join(chatmodel.GetChatID(ctx), name)
}

// InitiateChat starts the conversation with the recipient,
// the conversation ends when a participant does not reply.
func (a *ConversableAgent) InitiateChat(ctx context.Context, recipient Participant, message string) (*ChatResult, error) {
	if recipient == nil {
		return nil, errors.New("recipient is required")
	}
	ctx, chatCtx := chatmodel.EnsureChatContext(ctx)

	a.resetAutoReply(recipient)
	if r, ok := recipient.(interface{ resetAutoReply(Participant) }); ok {
		r.resetAutoReply(a)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "initiate_chat",
		"chat_id", chatCtx.GetChatID(),
		"sender", a.Name(),
		"recipient", recipient.Name(),
	)

	if err := a.Send(ctx, message, recipient); err != nil {
		return nil, err
	}

	history, err := a.ChatMessages(ctx, recipient)
	if err != nil {
		return nil, err
	}
	res := &ChatResult{
		ChatID:  chatCtx.GetChatID(),
		History: history,
	}
	if len(history) > 0 {
		res.Summary = strings.TrimSpace(history[len(history)-1].GetContent())
	}
	return res, nil
}

// Send records the message in the history of the conversation with the recipient,
// and delivers it to the recipient.
func (a *ConversableAgent) Send(ctx context.Context, message string, recipient Participant) error {
	ctx, _ = chatmodel.EnsureChatContext(ctx)
	if err := a.cfg.Store.Add(ctx, historyKey(ctx, recipient), llms.MessageFromTextParts(llms.RoleAI, message)); err != nil {
		return err
	}
	return recipient.Receive(ctx, llms.MessageFromTextParts(llms.RoleHuman, message), a)
}

// Receive records the message in the history of the conversation with the sender,
// and replies unless the conversation is terminated
// or the limit of automatic replies is reached.
func (a *ConversableAgent) Receive(ctx context.Context, msg llms.Message, sender Participant) error {
	ctx, _ = chatmodel.EnsureChatContext(ctx)
	key := historyKey(ctx, sender)
	if err := a.cfg.Store.Add(ctx, key, msg); err != nil {
		return err
	}
	if sender == nil {
		return nil
	}

	reply, ok, err := a.humanReply(ctx, msg, sender)
	if err != nil {
		return err
	}
	if !ok {
		if a.IsTerminationMessage(msg) || a.autoReplyLimitReached(sender) {
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "conversation_ended",
				"agent", a.Name(),
				"sender", sender.Name(),
			)
			a.resetAutoReply(sender)
			return nil
		}

		history, err := a.cfg.Store.Messages(ctx, key)
		if err != nil {
			return err
		}
		reply, err = a.GenerateReply(ctx, history, sender)
		if err != nil {
			return err
		}
		a.incAutoReply(sender)
	}

	// an empty reply ends the exchange
	if reply == "" {
		return nil
	}
	return a.Send(ctx, reply, sender)
}

// humanReply returns the reply from the human input,
// ok is false when the reply must be generated automatically,
// or when the conversation is over.
func (a *ConversableAgent) humanReply(ctx context.Context, msg llms.Message, sender Participant) (reply string, ok bool, err error) {
	if a.cfg.HumanInput == nil {
		return "", false, nil
	}

	var prompt string
	switch a.cfg.HumanInputMode {
	case HumanInputAlways:
		prompt = fmt.Sprintf("Replying as %s. Provide feedback to %s. Press enter to skip and use auto-reply, or type 'exit' to end the conversation: ", a.Name(), sender.Name())
	case HumanInputTerminate:
		if !a.IsTerminationMessage(msg) && !a.autoReplyLimitReached(sender) {
			return "", false, nil
		}
		prompt = fmt.Sprintf("Please give feedback to %s. Press enter or type 'exit' to stop the conversation: ", sender.Name())
	default:
		return "", false, nil
	}

	reply, err = a.cfg.HumanInput(ctx, prompt)
	if err != nil {
		return "", false, errors.WithMessage(err, "failed to get human input")
	}
	reply = strings.TrimSpace(reply)
	switch {
	case reply == "exit":
		return "", true, nil
	case reply == "" && a.cfg.HumanInputMode == HumanInputTerminate:
		return "", true, nil
	case reply == "":
		return "", false, nil
	}
	a.resetAutoReply(sender)
	return reply, true, nil
}

func (a *ConversableAgent) maxAutoReply() int {
	if a.cfg.MaxConsecutiveAutoReply != nil {
		return *a.cfg.MaxConsecutiveAutoReply
	}
	return DefaultMaxConsecutiveAutoReply
}

func (a *ConversableAgent) autoReplyLimitReached(sender Participant) bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.autoReplys[sender.Name()] >= a.maxAutoReply()
}

func (a *ConversableAgent) incAutoReply(sender Participant) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.autoReplys[sender.Name()]++
}

func (a *ConversableAgent) resetAutoReply(sender Participant) {
	a.lock.Lock()
	defer a.lock.Unlock()
	delete(a.autoReplys, sender.Name())
}

// GenerateReply returns the reply of the model for the messages.
// If the agent has no backends, DefaultAutoReply is returned.
// The tools the model asks for are executed, and the results are sent back
// to the model, until the model replies with text.
// A failed tool call is sent back to the model as the tool response,
// the callback receives the original error.
func (a *ConversableAgent) GenerateReply(ctx context.Context, messages []llms.Message, sender Participant) (string, error) {
	mc := a.cfg.ModelConfig
	if len(mc.BackendConfigs) == 0 {
		return a.cfg.DefaultAutoReply, nil
	}

	if mc.TimeoutSeconds != nil && *mc.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*mc.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	name := a.Name()
	started := time.Now()
	defer metricskey.PerfAgentReply.MeasureSince(started, name)

	backend, model, err := a.modelFor(ctx)
	if err != nil {
		metricskey.StatsAgentRepliesFailed.IncrCounter(1, name)
		return "", err
	}

	reply, err := a.runToolLoop(ctx, backend, model, messages)
	if err != nil {
		metricskey.StatsAgentRepliesFailed.IncrCounter(1, name)
		return "", err
	}

	metricskey.StatsAgentReplies.IncrCounter(1, name)
	a.cfg.Callback.OnReply(ctx, a, reply)
	return reply, nil
}

// modelFor returns the model of the first backend that can be created
func (a *ConversableAgent) modelFor(ctx context.Context) (*llmfactory.BackendConfig, llms.Model, error) {
	var lastErr error
	for _, backend := range a.cfg.ModelConfig.BackendConfigs {
		if backend == nil {
			continue
		}
		model, err := a.cfg.Factory.ModelFor(ctx, backend)
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.Name(),
				"reason", "model_for",
				"type", backend.NormalizedAPIType(),
				"model", backend.Model,
				"err", err.Error(),
			)
			lastErr = err
			continue
		}
		return backend, model, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no valid backend config")
	}
	return nil, nil, errors.WithMessagef(lastErr, "agent %s: failed to create model", a.Name())
}

func (a *ConversableAgent) runToolLoop(ctx context.Context, backend *llmfactory.BackendConfig, model llms.Model, messages []llms.Message) (string, error) {
	name := a.Name()
	modelName := model.GetName()

	history := make([]llms.Message, 0, len(messages)+1)
	if a.cfg.SystemMessage != "" {
		history = append(history, llms.MessageFromTextParts(llms.RoleSystem, a.cfg.SystemMessage))
	}
	history = append(history, messages...)

	callOpts := backend.CallOptions()
	if len(a.cfg.FunctionMap) > 0 {
		callOpts = append(callOpts,
			llms.WithTools(a.cfg.FunctionMap.LLMTools()),
			llms.WithToolChoice(llms.ToolChoiceAuto))
	}

	toolsLimit := values.NumbersCoalesce(a.cfg.MaxToolCalls, DefaultMaxToolCalls)
	totalToolCalls := 0
	for {
		resp, err := model.GenerateContent(ctx, history, callOpts...)
		if err != nil {
			return "", errors.WithMessagef(err, "agent %s: failed to generate content", name)
		}

		tokensIn, tokensOut, _ := llmutils.CountTokens(resp)
		metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), name, modelName)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), name, modelName)

		if len(resp.Choices) == 0 {
			return "", errors.Newf("agent %s: LLM returned empty response with no choices", name)
		}

		text, toolCalls := collectChoices(resp)
		if len(toolCalls) == 0 {
			logger.ContextKV(ctx, xlog.DEBUG,
				"agent", name,
				"status", "replied",
				"model", modelName,
				"tool_calls", totalToolCalls,
				"history_size", llmutils.CountMessagesContentSize(history),
			)
			return text, nil
		}

		totalToolCalls += len(toolCalls)
		if cc := chatmodel.GetChatContext(ctx); cc != nil {
			cc.AddToolCalls(len(toolCalls))
		}
		if totalToolCalls > toolsLimit {
			metricskey.StatsAgentToolLoopExceeded.IncrCounter(1, name)
			return "", errors.Newf("agent %s: the tool calls limit is exceeded", name)
		}

		parts := make([]llms.ContentPart, 0, len(toolCalls)+1)
		if text != "" {
			parts = append(parts, llms.TextPart(text))
		}
		for _, tc := range toolCalls {
			parts = append(parts, tc)
		}
		history = append(history, llms.MessageFromParts(llms.RoleAI, parts...))

		for _, tc := range toolCalls {
			content := a.executeToolCall(ctx, tc)
			history = append(history, llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
				ToolCallID: tc.ID,
				Name:       tc.FunctionCall.Name,
				Content:    content,
			}))
		}
	}
}

// collectChoices returns the text and the tool calls of all the choices,
// some providers return a choice per content block.
func collectChoices(resp *llms.ContentResponse) (string, []llms.ToolCall) {
	var texts []string
	var toolCalls []llms.ToolCall
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if choice.Content != "" {
			texts = append(texts, choice.Content)
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			if tc.ID == "" {
				tc.ID = "call_" + uuid.NewString()
			}
			tc.Type = values.StringsCoalesce(tc.Type, "function")
			toolCalls = append(toolCalls, tc)
		}
	}
	return strings.Join(texts, "\n\n"), toolCalls
}

// executeToolCall returns the content sent back to the model
func (a *ConversableAgent) executeToolCall(ctx context.Context, tc llms.ToolCall) string {
	toolName := tc.FunctionCall.Name
	tool, ok := a.cfg.FunctionMap.Find(toolName)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
		availableTools := strings.Join(a.cfg.FunctionMap.Names(), ", ")
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.Name(),
			"status", "tool_not_found",
			"tool_name", toolName,
			"available_tools", availableTools,
		)
		return fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools)
	}

	// the callback receives the tool error as is,
	// the model receives it as the tool response to correct the call or explain the failure
	res, err := tools.Call(ctx, tool, tc.FunctionCall.Arguments, a.cfg.Callback)
	if err != nil {
		if errors.Is(err, chatmodel.ErrFailedUnmarshalInput) {
			return fmt.Sprintf("Tool `%s` failed: %s", toolName, err.Error())
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.Name(),
			"status", "tool_error",
			"tool_name", toolName,
			"err", err.Error(),
		)
		return "Error: " + err.Error()
	}
	return res
}

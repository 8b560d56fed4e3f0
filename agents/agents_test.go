package agents_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/agents"
	"github.com/effective-security/searchagent/chatmodel"
	"github.com/effective-security/searchagent/mocks/mockllms"
	"github.com/effective-security/searchagent/mocks/mockwebsearch"
	"github.com/effective-security/searchagent/pkg/llmfactory"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/store"
	"github.com/effective-security/searchagent/tools"
	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/effective-security/xlog"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testBackends = []*llmfactory.BackendConfig{
	{Model: "gpt-4", APIKey: "sk-test"},
}

type fakeFactory struct {
	model llms.Model
	err   error
}

func (f *fakeFactory) ModelFor(_ context.Context, _ *llmfactory.BackendConfig) (llms.Model, error) {
	return f.model, f.err
}

func providerFactory(p websearch.Provider) websearch.ProviderFactory {
	return func(_ context.Context, _ websearch.Credentials) (websearch.Provider, error) {
		return p, nil
	}
}

func textResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        text,
				StopReason:     "stop",
				GenerationInfo: map[string]any{"InputTokens": int64(10), "OutputTokens": int64(5)},
			},
		},
	}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				StopReason: "tool_calls",
				ToolCalls: []llms.ToolCall{
					{
						ID:   id,
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      name,
							Arguments: args,
						},
					},
				},
			},
		},
	}
}

func TestNewSearchAgent(t *testing.T) {
	t.Parallel()

	a, err := agents.NewSearchAgent("search_agent", "k", "c", agents.WithTimeout(120))
	require.NoError(t, err)

	assert.Equal(t, "k", a.APIKey)
	assert.Equal(t, "c", a.SearchEngineID)
	assert.Equal(t, "search_agent", a.Name())
	assert.Equal(t, agents.DefaultSystemMessage, a.SystemMessage())
	assert.Equal(t, "You are a helpful AI assistant that searches web and generates report.\n", a.SystemMessage())

	cfg := a.Config()
	assert.Equal(t, agents.HumanInputNever, cfg.HumanInputMode)
	assert.False(t, cfg.CodeExecution)
	assert.Nil(t, cfg.MaxConsecutiveAutoReply)
	assert.Empty(t, cfg.DefaultAutoReply)

	mc := a.ModelConfig()
	require.NotNil(t, mc)
	require.NotNil(t, mc.TimeoutSeconds)
	assert.Equal(t, 120, *mc.TimeoutSeconds)
	assert.NotNil(t, mc.BackendConfigs)
	assert.Empty(t, mc.BackendConfigs)
	require.Len(t, mc.Tools, 1)
	assert.Contains(t, mc.Tools[0], websearch.ToolName)

	fm := a.FunctionMap()
	assert.Equal(t, []string{websearch.ToolName}, fm.Names())
	tool, ok := fm[websearch.ToolName].(*websearch.Tool)
	require.True(t, ok)
	assert.Equal(t, websearch.Credentials{APIKey: "k", SearchEngineID: "c"}, tool.Credentials())

	assert.Equal(t, websearch.DescribeTool(), a.DescribeTool())
	assert.NotSame(t, a.DescribeTool(), a.DescribeTool())

	a, err = agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithSystemMessage("custom"),
		agents.WithMaxConsecutiveAutoReply(3),
		agents.WithDefaultAutoReply("no backend"),
	)
	require.NoError(t, err)
	assert.Equal(t, "custom", a.SystemMessage())
	assert.Equal(t, testBackends, a.ModelConfig().BackendConfigs)
	assert.Nil(t, a.ModelConfig().TimeoutSeconds)
	require.NotNil(t, a.Config().MaxConsecutiveAutoReply)
	assert.Equal(t, 3, *a.Config().MaxConsecutiveAutoReply)

	// the search options are applied once, in order
	a, err = agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithSearchOptions(websearch.WithProviderFactory(websearch.GoogleProvider())),
		agents.WithSearchOptions(websearch.WithProviderFactory(providerFactory(nil))),
	)
	require.NoError(t, err)
	assert.Len(t, a.Config().SearchOptions, 2)
	assert.Equal(t, []string{websearch.ToolName}, a.FunctionMap().Names())
	require.Len(t, a.ModelConfig().Tools, 1)
}

func TestNewSearchAgent_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := agents.NewSearchAgent("", "k", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create search agent")
	assert.Contains(t, err.Error(), "Name")

	_, err = agents.NewSearchAgent("search_agent", "k", "c", agents.WithHumanInputMode("SOMETIMES"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HumanInputMode")

	_, err = agents.NewSearchAgent("search_agent", "k", "c", agents.WithMaxConsecutiveAutoReply(-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxConsecutiveAutoReply")

	_, err = agents.NewSearchAgent("search_agent", "k", "c", agents.WithCodeExecution(true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, agents.ErrCodeExecutionNotSupported))
}

func TestGenerateReply_DefaultAutoReply(t *testing.T) {
	t.Parallel()

	a, err := agents.NewSearchAgent("search_agent", "k", "c", agents.WithDefaultAutoReply("no backends"))
	require.NoError(t, err)

	reply, err := a.GenerateReply(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hello"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "no backends", reply)
}

func TestGenerateReply_ToolLoop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	provider := mockwebsearch.NewMockProvider(ctrl)

	items := []map[string]any{
		{"title": "Go", "link": "https://go.dev/"},
	}
	provider.EXPECT().Name().Return("mock").AnyTimes()
	provider.EXPECT().Search(gomock.Any(), "golang").Return(items, nil).Times(1)
	model.EXPECT().GetName().Return("gpt-4").AnyTimes()

	var out bytes.Buffer
	a, err := agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithTimeout(30),
		agents.WithFactory(&fakeFactory{model: model}),
		agents.WithSearchOptions(websearch.WithProviderFactory(providerFactory(provider))),
		agents.WithCallback(agents.NewPrinterCallback(&out)),
	)
	require.NoError(t, err)

	question := llms.MessageFromTextParts(llms.RoleHuman, "what is golang?")

	gomock.InOrder(
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, msgs []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)

				require.Len(t, msgs, 2)
				assert.Equal(t, llms.RoleSystem, msgs[0].Role)
				assert.Equal(t, agents.DefaultSystemMessage, msgs[0].GetContent())

				co := llms.NewCallOptions(opts...)
				assert.Equal(t, "gpt-4", co.Model)
				require.Len(t, co.Tools, 1)
				assert.Equal(t, websearch.ToolName, co.Tools[0].Function.Name)
				assert.Equal(t, llms.ToolChoiceAuto, co.ToolChoice)
				return toolCallResponse("", websearch.ToolName, `{"query":"golang"}`), nil
			}),
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				require.Len(t, msgs, 4)

				calls := msgs[2].ToolCalls()
				require.Len(t, calls, 1)
				assert.True(t, strings.HasPrefix(calls[0].ID, "call_"))
				assert.Equal(t, websearch.ToolName, calls[0].FunctionCall.Name)

				assert.Equal(t, llms.RoleTool, msgs[3].Role)
				require.Len(t, msgs[3].Parts, 1)
				resp, ok := msgs[3].Parts[0].(llms.ToolCallResponse)
				require.True(t, ok)
				assert.Equal(t, calls[0].ID, resp.ToolCallID)
				assert.JSONEq(t, `[{"title":"Go","link":"https://go.dev/"}]`, resp.Content)
				return textResponse("Go is a programming language."), nil
			}),
	)

	chatCtx := chatmodel.NewChatContext("")
	ctx := chatmodel.WithChatContext(context.Background(), chatCtx)
	reply, err := a.GenerateReply(ctx, []llms.Message{question}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", reply)
	assert.Equal(t, 1, chatCtx.ToolCalls())

	printed := out.String()
	assert.Contains(t, printed, "Tool Start: search_web")
	assert.Contains(t, printed, "Tool End: search_web")
	assert.Contains(t, printed, "Reply: search_agent")
}

type toolErrorRecorder struct {
	agents.NoopCallback
	errs []error
}

func (r *toolErrorRecorder) OnToolError(_ context.Context, _ tools.ITool, _ string, err error) {
	r.errs = append(r.errs, err)
}

// lastToolResponse returns the tool response part of the last message
func lastToolResponse(t *testing.T, msgs []llms.Message) llms.ToolCallResponse {
	t.Helper()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, llms.RoleTool, last.Role)
	require.Len(t, last.Parts, 1)
	resp, ok := last.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok, "unexpected part %T", last.Parts[0])
	return resp
}

func TestGenerateReply_ProviderError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	provider := mockwebsearch.NewMockProvider(ctrl)

	providerErr := errors.New("googleapi: Error 403: API key not valid")
	provider.EXPECT().Name().Return("mock").AnyTimes()
	provider.EXPECT().Search(gomock.Any(), "golang").Return(nil, providerErr)
	model.EXPECT().GetName().Return("gpt-4").AnyTimes()
	gomock.InOrder(
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(toolCallResponse("call_1", websearch.ToolName, `{"query":"golang"}`), nil),
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				resp := lastToolResponse(t, msgs)
				assert.Equal(t, "call_1", resp.ToolCallID)
				assert.Equal(t, websearch.ToolName, resp.Name)
				assert.Equal(t, "Error: googleapi: Error 403: API key not valid", resp.Content)
				return textResponse("The search is not available, check the API key."), nil
			}),
	)

	cb := &toolErrorRecorder{}
	a, err := agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model}),
		agents.WithCallback(cb),
		agents.WithSearchOptions(websearch.WithProviderFactory(providerFactory(provider))),
	)
	require.NoError(t, err)

	reply, err := a.GenerateReply(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "what is golang?"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "The search is not available, check the API key.", reply)

	require.Len(t, cb.errs, 1)
	assert.True(t, errors.Is(cb.errs[0], providerErr))
	assert.Equal(t, providerErr.Error(), cb.errs[0].Error())
}

func TestGenerateReply_EmptyQuery(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	provider := mockwebsearch.NewMockProvider(ctrl)

	badRequest := errors.New("googleapi: Error 400: Request contains an invalid argument")
	provider.EXPECT().Name().Return("mock").AnyTimes()
	provider.EXPECT().Search(gomock.Any(), "").Return(nil, badRequest)
	model.EXPECT().GetName().Return("gpt-4").AnyTimes()
	gomock.InOrder(
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(toolCallResponse("call_1", websearch.ToolName, `{"query":""}`), nil),
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				resp := lastToolResponse(t, msgs)
				assert.Equal(t, "Error: "+badRequest.Error(), resp.Content)
				return textResponse("What should I search for?"), nil
			}),
	)

	a, err := agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model}),
		agents.WithSearchOptions(websearch.WithProviderFactory(providerFactory(provider))),
	)
	require.NoError(t, err)

	reply, err := a.GenerateReply(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "search"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "What should I search for?", reply)
}

func TestGenerateReply_ToolErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("claude").AnyTimes()

	a, err := agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model}),
	)
	require.NoError(t, err)

	// an unknown tool and invalid arguments are reported to the model,
	// the Anthropic style response has a choice per content block
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "Let me search."},
			toolCallResponse("call_1", "read_file", `{}`).Choices[0],
			toolCallResponse("call_2", "SEARCH_WEB", `{"q":1}`).Choices[0],
		},
	}

	gomock.InOrder(
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(resp, nil),
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				require.Len(t, msgs, 5)
				assert.True(t, strings.HasPrefix(msgs[2].GetContent(), "Let me search.\n"))
				assert.Len(t, msgs[2].ToolCalls(), 2)
				assert.Contains(t, msgs[3].GetContent(), "Tool `read_file` not found")
				assert.Contains(t, msgs[3].GetContent(), "Available tools: search_web")
				assert.Contains(t, msgs[4].GetContent(), chatmodel.ErrFailedUnmarshalInput.Error())
				return textResponse("done"), nil
			}),
	)

	reply, err := a.GenerateReply(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "what is golang?"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
}

func TestGenerateReply_Limits(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("gpt-4").AnyTimes()
	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(toolCallResponse("call_1", "unknown", `{}`), nil).Times(3)

	a, err := agents.NewConversableAgent("assistant",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model}),
		agents.WithMaxToolCalls(2),
	)
	require.NoError(t, err)

	_, err = a.GenerateReply(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "loop"),
	}, nil)
	assert.EqualError(t, err, "agent assistant: the tool calls limit is exceeded")

	// model errors
	model2 := mockllms.NewMockModel(ctrl)
	model2.EXPECT().GetName().Return("gpt-4").AnyTimes()
	model2.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rate limited"))
	a, err = agents.NewConversableAgent("assistant",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model2}),
	)
	require.NoError(t, err)
	_, err = a.GenerateReply(context.Background(), nil, nil)
	assert.EqualError(t, err, "agent assistant: failed to generate content: rate limited")

	a, err = agents.NewConversableAgent("assistant",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{err: errors.New("missing the OpenAI API key")}),
	)
	require.NoError(t, err)
	_, err = a.GenerateReply(context.Background(), nil, nil)
	assert.EqualError(t, err, "agent assistant: failed to create model: missing the OpenAI API key")
}

func TestInitiateChat(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("gpt-4").AnyTimes()
	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(textResponse("Go is a programming language."), nil).Times(1)

	st := store.NewMemoryStore()
	searcher, err := agents.NewSearchAgent("search_agent", "k", "c",
		agents.WithBackendConfigs(testBackends),
		agents.WithFactory(&fakeFactory{model: model}),
		agents.WithStore(st),
		agents.WithCallback(agents.NewPackageLoggerCallback(xlog.NewPackageLogger("github.com/effective-security/searchagent", "agents_test"))),
	)
	require.NoError(t, err)

	user, err := agents.NewConversableAgent("user",
		agents.WithHumanInputMode(agents.HumanInputNever),
		agents.WithMaxConsecutiveAutoReply(0),
		agents.WithStore(st),
	)
	require.NoError(t, err)

	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("chat1"))
	res, err := user.InitiateChat(ctx, searcher, "what is golang?")
	require.NoError(t, err)
	assert.Equal(t, "chat1", res.ChatID)
	assert.Equal(t, "Go is a programming language.", res.Summary)

	expected := []llms.Message{
		llms.MessageFromTextParts(llms.RoleAI, "what is golang?"),
		llms.MessageFromTextParts(llms.RoleHuman, "Go is a programming language."),
	}
	if diff := cmp.Diff(expected, res.History); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	history, err := searcher.ChatMessages(ctx, user)
	require.NoError(t, err)
	expected = []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "what is golang?"),
		llms.MessageFromTextParts(llms.RoleAI, "Go is a programming language."),
	}
	if diff := cmp.Diff(expected, history); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	chats, err := st.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat1/search_agent", "chat1/user"}, chats)

	_, err = user.InitiateChat(ctx, nil, "hi")
	assert.EqualError(t, err, "recipient is required")
}

func TestReceive_Termination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	replies := 0
	echo, err := agents.NewConversableAgent("echo",
		agents.WithDefaultAutoReply("ok"),
		agents.WithMaxConsecutiveAutoReply(2),
	)
	require.NoError(t, err)

	user, err := agents.NewConversableAgent("user",
		agents.WithHumanInputMode(agents.HumanInputAlways),
		agents.WithDefaultAutoReply("continue"),
		agents.WithHumanInput(func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "Replying as user")
			replies++
			if replies == 1 {
				return "", nil
			}
			return "exit", nil
		}),
	)
	require.NoError(t, err)

	res, err := user.InitiateChat(ctx, echo, "hello")
	require.NoError(t, err)
	// hello, ok, the auto reply of the user, ok, then exit
	assert.Equal(t, 2, replies)
	require.Len(t, res.History, 4)
	assert.Equal(t, "ok", res.Summary)

	// the termination message is not replied
	term, err := agents.NewConversableAgent("term", agents.WithDefaultAutoReply("TERMINATE"))
	require.NoError(t, err)
	res, err = echo.InitiateChat(ctx, term, "hi")
	require.NoError(t, err)
	require.Len(t, res.History, 2)
	assert.Equal(t, "TERMINATE", res.Summary)
	assert.True(t, echo.IsTerminationMessage(res.History[1]))

	// an empty reply is not sent
	silent, err := agents.NewConversableAgent("silent")
	require.NoError(t, err)
	res, err = echo.InitiateChat(ctx, silent, "hi")
	require.NoError(t, err)
	require.Len(t, res.History, 1)
	assert.Equal(t, "hi", res.Summary)

	custom, err := agents.NewConversableAgent("custom",
		agents.WithTerminationPredicate(func(msg llms.Message) bool {
			return strings.Contains(msg.GetContent(), "bye")
		}),
	)
	require.NoError(t, err)
	assert.True(t, custom.IsTerminationMessage(llms.MessageFromTextParts(llms.RoleHuman, "good bye")))
	assert.False(t, custom.IsTerminationMessage(llms.MessageFromTextParts(llms.RoleHuman, "TERMINATE")))
}

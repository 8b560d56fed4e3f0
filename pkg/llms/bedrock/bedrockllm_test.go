package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	calls int
}

func (f *fakeRuntime) InvokeModel(_ context.Context, _ *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	return &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"hello"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`),
	}, nil
}

func TestGenerateContent(t *testing.T) {
	rt := &fakeRuntime{}
	llm, err := New(context.Background(), WithClient(rt))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, llm.GetName())
	assert.Equal(t, llms.ProviderBedrock, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Content)
	assert.Equal(t, 1, rt.calls)
}

func TestProcessMessages(t *testing.T) {
	msgs, err := processMessages([]llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "find", "golang"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:           "tu_1",
			FunctionCall: &llms.FunctionCall{Name: "search_web", Arguments: `{"query":"golang"}`},
		}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{ToolCallID: "tu_1", Content: "[]"}),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "text", msgs[1].Type)
	assert.Equal(t, "tool_use", msgs[2].Type)
	assert.Equal(t, "search_web", msgs[2].ToolName)
	assert.Equal(t, "tool_result", msgs[3].Type)

	_, err = processMessages([]llms.Message{
		{Role: llms.RoleHuman, Parts: []llms.ContentPart{nil}},
	})
	assert.EqualError(t, err, "bedrock: unsupported content part <nil>")
}

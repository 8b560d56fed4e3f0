package llmutils_test

import (
	"testing"

	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_CleanJSON(t *testing.T) {
	llmOutput := "\n```json\n\n{\"query\": \"golang\"}\n\n```\n\n"
	assert.Equal(t, `{"query": "golang"}`, string(llmutils.CleanJSON([]byte(llmOutput))))

	llmOutput = "Here you go:\n```json\n\n[{\"title\": \"Go\", \"link\": \"https://go.dev\"}]\n```\n\n"
	assert.Equal(t, `[{"title": "Go", "link": "https://go.dev"}]`, string(llmutils.CleanJSON([]byte(llmOutput))))

	assert.Equal(t, "no json", string(llmutils.CleanJSON([]byte("no json"))))
}

func Test_BackticksJSON(t *testing.T) {
	assert.Equal(t, "\n```json\n{\"query\": \"golang\"}\n```\n", llmutils.BackticksJSON(` {"query": "golang"} `))
}

func Test_ToJSONIndent(t *testing.T) {
	v := map[string]any{"query": "golang"}
	assert.Equal(t, "{\n\t\"query\": \"golang\"\n}", llmutils.ToJSONIndent(v))
	assert.Equal(t, "query: golang\n", llmutils.ToYAML(v))
}

func Test_CountMessagesContentSize(t *testing.T) {
	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "Hello"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{ID: "1", Type: "function", FunctionCall: &llms.FunctionCall{Name: "search_web", Arguments: "{}"}}),
	}
	// human(5)+Hello(5) + ai(2)+1+function(8)+search_web(10)+{}(2)
	assert.Equal(t, uint64(33), llmutils.CountMessagesContentSize(msgs))
}

func Test_CountTokens(t *testing.T) {
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: "Hello world",
				GenerationInfo: map[string]any{
					"InputTokens":  int64(10),
					"OutputTokens": int64(5),
					"TotalTokens":  int64(15),
				},
			},
		},
	}
	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(10), in)
	assert.Equal(t, int64(5), out)
	assert.Equal(t, int64(15), total)

	resp.Choices = append(resp.Choices, nil, &llms.ContentChoice{
		GenerationInfo: map[string]any{"InputTokens": int64(1)},
	})
	in, _, _ = llmutils.CountTokens(resp)
	assert.Equal(t, int64(11), in)
}

package llmutils

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/x/values"
	"gopkg.in/yaml.v3"
)

// CleanJSON returns the JSON object or array embedded in a model reply,
// dropping any text or code fence around it, like
// "Here you go: ```json {...} ```".
// The input is returned as is when it has no JSON.
func CleanJSON(bs []byte) []byte {
	start := firstIndex(bytes.IndexByte(bs, '{'), bytes.IndexByte(bs, '['))
	if start < 0 {
		return bs
	}
	bs = bs[start:]

	end := max(bytes.LastIndexByte(bs, '}'), bytes.LastIndexByte(bs, ']'))
	if end < 0 {
		return bs
	}
	return bs[:end+1]
}

// firstIndex returns the smallest non-negative index, or -1
func firstIndex(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	default:
		return min(a, b)
	}
}

// BackticksJSON wraps JSON into markdown code block
func BackticksJSON(js string) string {
	return "\n```json\n" + strings.TrimSpace(js) + "\n```\n"
}

// ToJSONIndent returns indented JSON of the value, or empty string
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// ToYAML returns YAML of the value, or empty string
func ToYAML(val any) string {
	js, _ := yaml.Marshal(val)
	return string(js)
}

// CountMessagesContentSize returns the number of bytes sent to the model,
// tool calls and tool responses included.
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size int
	for _, mc := range msgs {
		size += len(mc.Role)
		for _, p := range mc.Parts {
			switch pp := p.(type) {
			case llms.TextContent:
				size += len(pp.Text)
			case llms.BinaryContent:
				size += len(pp.MIMEType) + len(pp.Data)
			case llms.ToolCall:
				size += len(pp.ID) + len(pp.Type)
				if pp.FunctionCall != nil {
					size += len(pp.FunctionCall.Name) + len(pp.FunctionCall.Arguments)
				}
			case llms.ToolCallResponse:
				size += len(pp.ToolCallID) + len(pp.Name) + len(pp.Content)
			}
		}
	}
	return uint64(size)
}

// CountTokens sums the token usage the backends report in GenerationInfo.
func CountTokens(resp *llms.ContentResponse) (in, out, total int64) {
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		info := values.MapAny(choice.GenerationInfo)
		in += info.Int64("InputTokens")
		out += info.Int64("OutputTokens")
		total += info.Int64("TotalTokens")
	}
	return
}

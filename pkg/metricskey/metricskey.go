package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsToolCallsSucceeded is base for counter metric for tool calls succeeded
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsSearchFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_search_failed",
		Help:         "stats_search_failed provides total web searches failed",
		RequiredTags: []string{"provider"},
	}

	StatsSearchResults = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_search_results",
		Help:         "stats_search_results provides total items returned by web searches",
		RequiredTags: []string{"provider"},
	}

	StatsAgentReplies = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_replies",
		Help:         "stats_agent_replies provides total replies generated by agent",
		RequiredTags: []string{"agent"},
	}

	StatsAgentRepliesFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_replies_failed",
		Help:         "stats_agent_replies_failed provides total replies failed",
		RequiredTags: []string{"agent"},
	}

	StatsAgentToolLoopExceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_tool_loop_exceeded",
		Help:         "stats_agent_tool_loop_exceeded provides total replies stopped by the tool calls limit",
		RequiredTags: []string{"agent"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"agent", "model"},
	}
)

// Perf
var (
	PerfSearch = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_search",
		Help:         "perf_search provides duration of web search",
		RequiredTags: []string{"provider"},
	}

	PerfAgentReply = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_reply",
		Help:         "perf_agent_reply provides duration of agent reply",
		RequiredTags: []string{"agent"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentReply,
	&PerfSearch,
	&PerfToolCall,
	&StatsAgentReplies,
	&StatsAgentRepliesFailed,
	&StatsAgentToolLoopExceeded,
	&StatsLLMInputTokens,
	&StatsLLMOutputTokens,
	&StatsSearchFailed,
	&StatsSearchResults,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}

package main

import (
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/agents"
	"github.com/effective-security/searchagent/chatmodel"
	"github.com/effective-security/searchagent/pkg/llmfactory"
	"github.com/effective-security/searchagent/store"
	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type askFlags struct {
	configList  string
	models      []string
	timeout     int
	redisURL    string
	redisPrefix string
	chatID      string
	verbose     bool
}

func newAskCmd(c *cli) *cobra.Command {
	f := &askFlags{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the search agent a question",
		Long:  "ask runs the search agent with the LLM backends from the config list, the agent searches the web when needed and replies with a report.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ask(cmd, f, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configList, "config-list", envConfigList, "environment variable or file with the list of LLM backends")
	flags.StringSliceVar(&f.models, "model", nil, "use only the backends with the model")
	flags.IntVar(&f.timeout, "timeout", 120, "reply timeout in seconds")
	flags.StringVar(&f.redisURL, "redis", "", "Redis URL to keep the chat history, by default the history is kept in memory")
	flags.StringVar(&f.redisPrefix, "redis-prefix", "searchagent", "Redis keys prefix")
	flags.StringVar(&f.chatID, "chat-id", "", "chat ID to continue the conversation")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print the tool calls")
	return cmd
}

func (c *cli) ask(cmd *cobra.Command, f *askFlags, question string) error {
	ctx := contextFor(cmd)

	var filter map[string][]string
	if len(f.models) > 0 {
		filter = map[string][]string{"model": f.models}
	}
	backends, err := llmfactory.LoadConfigList(f.configList, filter)
	if err != nil {
		return err
	}
	if len(backends) == 0 {
		return errors.Newf("no LLM backends found in %s", f.configList)
	}

	factory, err := c.providerFactory()
	if err != nil {
		return err
	}

	var st store.MessageStore
	if f.redisURL != "" {
		opts, err := redis.ParseURL(f.redisURL)
		if err != nil {
			return errors.Wrap(err, "invalid Redis URL")
		}
		client := redis.NewClient(opts)
		defer func() {
			_ = client.Close()
		}()
		st = store.NewRedisStore(client, f.redisPrefix)
	} else {
		st = store.NewMemoryStore()
	}

	opts := []agents.Option{
		agents.WithBackendConfigs(backends),
		agents.WithTimeout(f.timeout),
		agents.WithStore(st),
		agents.WithSearchOptions(websearch.WithProviderFactory(factory)),
	}
	if f.verbose {
		opts = append(opts, agents.WithCallback(agents.NewPrinterCallback(cmd.ErrOrStderr())))
	} else {
		opts = append(opts, agents.WithCallback(agents.NewPackageLoggerCallback(logger)))
	}

	agent, err := agents.NewSearchAgent("search_agent", c.apiKey, c.cseID, opts...)
	if err != nil {
		return err
	}
	user, err := agents.NewConversableAgent("user",
		agents.WithHumanInputMode(agents.HumanInputNever),
		agents.WithMaxConsecutiveAutoReply(0),
		agents.WithStore(st),
	)
	if err != nil {
		return err
	}

	chatCtx := chatmodel.NewChatContext(f.chatID)
	ctx = chatmodel.WithChatContext(ctx, chatCtx)
	res, err := user.InitiateChat(ctx, agent, question)
	if err != nil {
		return err
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "answered",
		"chat_id", res.ChatID,
		"messages", len(res.History),
		"tool_calls", chatCtx.ToolCalls(),
		"elapsed", time.Since(chatCtx.StartedAt()).String(),
	)

	c.print(cmd.OutOrStdout(), res, func(w io.Writer) {
		printReply(w, agent.Name(), res.Summary)
	})
	return nil
}

package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/effective-security/searchagent/tools/websearch/google"
	"github.com/effective-security/searchagent/tools/websearch/tavily"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/searchagent", "cli")

const (
	envAPIKey     = "GOOGLE_API_KEY"
	envCSEID      = "GOOGLE_CSE_ID"
	envConfigList = "OAI_CONFIG_LIST"
)

var logLevels = map[string]xlog.LogLevel{
	"debug":   xlog.DEBUG,
	"info":    xlog.INFO,
	"warning": xlog.WARNING,
	"error":   xlog.ERROR,
}

// cli holds the global flags
type cli struct {
	apiKey    string
	cseID     string
	provider  string
	searchURL string
	format    string
	logLevel  string
	noColor   bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "searchagent",
		Short:         "Web search agent",
		Long:          "searchagent searches the web with the search_web tool, and answers questions with an LLM that calls the tool.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.configure(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.apiKey, "api-key", "", "search provider API key, default from "+envAPIKey)
	flags.StringVar(&c.cseID, "cse-id", "", "Google custom search engine ID, default from "+envCSEID)
	flags.StringVar(&c.provider, "provider", google.ProviderName, "search provider: google or tavily")
	flags.StringVar(&c.searchURL, "search-url", "", "overrides the search provider endpoint")
	flags.StringVarP(&c.format, "format", "f", "text", "output format: text, json or yaml")
	flags.StringVar(&c.logLevel, "log-level", "error", "log level: debug, info, warning or error")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newSchemaCmd(c))
	cmd.AddCommand(newSearchCmd(c))
	cmd.AddCommand(newAskCmd(c))
	return cmd
}

func (c *cli) configure(cmd *cobra.Command) error {
	level, ok := logLevels[strings.ToLower(c.logLevel)]
	if !ok {
		return errors.Newf("invalid log level: %s", c.logLevel)
	}
	xlog.SetFormatter(xlog.NewStringFormatter(cmd.ErrOrStderr()))
	xlog.SetGlobalLogLevel(level)

	switch c.format {
	case "text", "json", "yaml":
	default:
		return errors.Newf("invalid format: %s", c.format)
	}

	c.apiKey = values.StringsCoalesce(c.apiKey, os.Getenv(envAPIKey))
	c.cseID = values.StringsCoalesce(c.cseID, os.Getenv(envCSEID))
	setNoColor(c.noColor)
	return nil
}

func (c *cli) credentials() websearch.Credentials {
	return websearch.Credentials{
		APIKey:         c.apiKey,
		SearchEngineID: c.cseID,
	}
}

// providerFactory returns the factory of the search provider selected by the flags
func (c *cli) providerFactory() (websearch.ProviderFactory, error) {
	switch c.provider {
	case google.ProviderName:
		var opts []google.Option
		if c.searchURL != "" {
			opts = append(opts, google.WithBaseURL(c.searchURL))
		}
		return websearch.GoogleProvider(opts...), nil
	case tavily.ProviderName:
		var opts []tavily.Option
		if c.searchURL != "" {
			opts = append(opts, tavily.WithBaseURL(c.searchURL))
		}
		return websearch.TavilyProvider(opts...), nil
	default:
		return nil, errors.Newf("unsupported search provider: %s", c.provider)
	}
}

// print writes the value in the format selected by the flags,
// text is printed with the provided function.
func (c *cli) print(w io.Writer, val any, text func(io.Writer)) {
	switch c.format {
	case "json":
		_, _ = io.WriteString(w, llmutils.ToJSONIndent(val)+"\n")
	case "yaml":
		_, _ = io.WriteString(w, llmutils.ToYAML(val))
	default:
		text(w)
	}
}

func contextFor(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package llmfactory

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
	"sigs.k8s.io/yaml"
)

// API types supported in the api_type field of a config list entry.
const (
	APITypeOpenAI    = "openai"
	APITypeAzure     = "azure"
	APITypeAnthropic = "anthropic"
	APITypeGoogle    = "google"
	APITypeBedrock   = "bedrock"
)

// BackendConfig is one entry of a config list, the same shape
// as an OAI_CONFIG_LIST entry.
type BackendConfig struct {
	Model      string `json:"model" yaml:"model" toml:"model"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url"`
	APIType    string `json:"api_type,omitempty" yaml:"api_type,omitempty" toml:"api_type"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" toml:"api_version"`
	// Region is the AWS region for bedrock, or the GCP location for google on Vertex AI.
	Region string `json:"region,omitempty" yaml:"region,omitempty" toml:"region"`
	// Project is the GCP project for google on Vertex AI.
	Project     string   `json:"project,omitempty" yaml:"project,omitempty" toml:"project"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature"`
	TopP        float64  `json:"top_p,omitempty" yaml:"top_p,omitempty" toml:"top_p"`
	Seed        int      `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed"`
	Stop        []string `json:"stop,omitempty" yaml:"stop,omitempty" toml:"stop"`
}

// NormalizedAPIType returns the lower-case API type, openai when not set.
func (c *BackendConfig) NormalizedAPIType() string {
	switch t := strings.ToLower(c.APIType); t {
	case "", "open_ai":
		return APITypeOpenAI
	case "azure_ad":
		return APITypeAzure
	case "googleai", "gemini", "vertex":
		return APITypeGoogle
	default:
		return t
	}
}

// CallOptions returns the call options configured for the backend.
func (c *BackendConfig) CallOptions() []llms.CallOption {
	var opts []llms.CallOption
	if c.Model != "" {
		opts = append(opts, llms.WithModel(c.Model))
	}
	if c.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*c.Temperature))
	}
	if c.TopP > 0 {
		opts = append(opts, llms.WithTopP(c.TopP))
	}
	if c.Seed != 0 {
		opts = append(opts, llms.WithSeed(c.Seed))
	}
	if len(c.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(c.Stop))
	}
	return opts
}

// value returns the string value of a config field by its JSON key.
func (c *BackendConfig) value(key string) []string {
	switch key {
	case "model":
		return []string{c.Model}
	case "api_type":
		return []string{c.APIType}
	case "base_url":
		return []string{c.BaseURL}
	case "api_version":
		return []string{c.APIVersion}
	case "region":
		return []string{c.Region}
	case "project":
		return []string{c.Project}
	case "tags":
		return c.Tags
	}
	return nil
}

// ConfigFile is the object form of a config list file.
type ConfigFile struct {
	ConfigList []*BackendConfig `json:"config_list" yaml:"config_list" toml:"config"`
}

// LoadConfigList loads a list of backend configs.
//
// If an environment variable named envOrFile exists, its value is either
// a path to a file or the JSON/YAML content of the list.
// Otherwise envOrFile is treated as a path to a file.
// If neither exists, an empty list is returned.
//
// The filter is applied with FilterConfigs.
func LoadConfigList(envOrFile string, filter map[string][]string) ([]*BackendConfig, error) {
	var list []*BackendConfig
	var err error

	if val := os.Getenv(envOrFile); val != "" {
		if fileExists(val) {
			list, err = LoadConfigFile(val)
		} else {
			list, err = ParseConfigList([]byte(val))
		}
	} else if fileExists(envOrFile) {
		list, err = LoadConfigFile(envOrFile)
	} else {
		logger.KV(xlog.WARNING,
			"reason", "config_list_not_found",
			"source", envOrFile)
		return []*BackendConfig{}, nil
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load config list from %q", envOrFile)
	}

	return FilterConfigs(list, filter), nil
}

// LoadConfigFile loads a config list from a file.
// TOML files use [[config]] tables. Other files contain either a JSON/YAML list,
// or an object with a config_list field.
func LoadConfigFile(file string) ([]*BackendConfig, error) {
	if strings.EqualFold(filepath.Ext(file), ".toml") {
		var cf ConfigFile
		if _, err := toml.DecodeFile(file, &cf); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", file)
		}
		return expandAll(cf.ConfigList)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return ParseConfigList(raw)
	}

	var cf ConfigFile
	if err = configloader.UnmarshalAndExpand(file, &cf); err != nil {
		return nil, err
	}
	return cf.ConfigList, nil
}

// ParseConfigList parses JSON or YAML list content.
// The `${VAR}` references in the values are expanded after parsing,
// other `$` characters are kept as is.
func ParseConfigList(content []byte) ([]*BackendConfig, error) {
	var list []*BackendConfig
	if err := yaml.Unmarshal(content, &list); err != nil {
		return nil, errors.Wrap(err, "failed to parse config list")
	}
	return expandAll(list)
}

// FilterConfigs returns the configs matching the filter.
// A config matches when, for every filter key, its value (or one of its tags)
// is in the list of allowed values. An empty filter matches every config.
func FilterConfigs(list []*BackendConfig, filter map[string][]string) []*BackendConfig {
	res := make([]*BackendConfig, 0, len(list))
	for _, cfg := range list {
		if cfg != nil && matches(cfg, filter) {
			res = append(res, cfg)
		}
	}
	return res
}

func matches(cfg *BackendConfig, filter map[string][]string) bool {
	for key, allowed := range filter {
		found := false
		for _, v := range cfg.value(key) {
			if slices.Contains(allowed, v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func expandAll(list []*BackendConfig) ([]*BackendConfig, error) {
	if err := configloader.ExpandAll(&list); err != nil {
		return nil, errors.WithMessage(err, "failed to expand config list")
	}
	return list, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

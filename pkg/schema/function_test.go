package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupRequest struct {
	Query string `json:"query" jsonschema:"description=query to search"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=max number of results,minimum=1,maximum=10"`
}

func TestFunctionSchema(t *testing.T) {
	t.Parallel()

	fs, err := schema.NewFunctionSchema("lookup", "look up the answer", reflect.TypeOf(lookupRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "lookup", fs.Name)
	assert.Equal(t, []string{"query"}, fs.Parameters.Required)

	js, err := json.Marshal(schema.NewFunctionsConfig(fs))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"lookup": {
			"name": "lookup",
			"description": "look up the answer",
			"parameters": {
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "query to search"},
					"limit": {"type": "integer", "description": "max number of results", "minimum": 1, "maximum": 10}
				},
				"required": ["query"]
			}
		}
	}`, string(js))

	// each declaration owns its parameters
	fs.Parameters.Required = append(fs.Parameters.Required, "limit")
	fs.Parameters.Properties.Delete("query")
	fs2, err := schema.NewFunctionSchema("lookup", "look up the answer", reflect.TypeOf(lookupRequest{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"query"}, fs2.Parameters.Required)
	assert.Equal(t, 2, fs2.Parameters.Properties.Len())
	s, err := schema.New(reflect.TypeOf(lookupRequest{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"query"}, s.Parameters.Required)

	clone, err := schema.Clone(nil)
	require.NoError(t, err)
	assert.Nil(t, clone)

	assert.Panics(t, func() {
		schema.MustFunctionSchema("", "no name", reflect.TypeOf(lookupRequest{}))
	})
}

func TestFunctionSchema_Validate(t *testing.T) {
	t.Parallel()

	var nilSchema *schema.FunctionSchema
	assert.EqualError(t, nilSchema.Validate(), "function schema is nil")

	tcases := []struct {
		name string
		fs   *schema.FunctionSchema
		err  string
	}{
		{
			name: "no_params",
			fs:   &schema.FunctionSchema{Name: "f", Description: "d"},
			err:  "invalid function schema \"f\"",
		},
		{
			name: "no_description",
			fs: &schema.FunctionSchema{Name: "f", Parameters: schema.MustFromAny(map[string]any{
				"type": "object",
			})},
			err: "invalid function schema \"f\"",
		},
		{
			name: "not_object",
			fs: &schema.FunctionSchema{Name: "f", Description: "d", Parameters: schema.MustFromAny(map[string]any{
				"type": "string",
			})},
			err: "function \"f\": parameters must be of type object, got \"string\"",
		},
		{
			name: "required_without_properties",
			fs: &schema.FunctionSchema{Name: "f", Description: "d", Parameters: schema.MustFromAny(map[string]any{
				"type":     "object",
				"required": []string{"query"},
			})},
			err: "function \"f\": required parameter \"query\" is not defined",
		},
		{
			name: "required_not_in_properties",
			fs: &schema.FunctionSchema{Name: "f", Description: "d", Parameters: schema.MustFromAny(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"q": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			})},
			err: "function \"f\": required parameter \"query\" is not defined",
		},
		{
			name: "valid",
			fs: &schema.FunctionSchema{Name: "f", Description: "d", Parameters: schema.MustFromAny(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			})},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fs.Validate()
			if tc.err == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
			}
		})
	}
}

func TestValidateArguments(t *testing.T) {
	t.Parallel()

	fs := schema.MustFunctionSchema("lookup", "look up the answer", reflect.TypeOf(lookupRequest{}))

	assert.NoError(t, schema.ValidateArguments(fs.Parameters, []byte(`{"query":"golang"}`)))
	assert.NoError(t, schema.ValidateArguments(fs.Parameters, []byte(`{"query":"golang","limit":3}`)))

	err := schema.ValidateArguments(fs.Parameters, []byte(`{"limit":3}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments:")
	assert.Contains(t, err.Error(), "query is required")

	err = schema.ValidateArguments(fs.Parameters, []byte(`{"query":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments:")

	err = schema.ValidateArguments(fs.Parameters, []byte(`{"query":"golang","limit":100}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments:")

	assert.EqualError(t, schema.ValidateArguments(fs.Parameters, []byte(`{query}`)), "arguments are not valid JSON")
	assert.EqualError(t, schema.ValidateArguments(nil, []byte(`{}`)), "parameters schema is nil")
}

package schema

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FunctionSchema declares a function that a model can call:
// the name, the description and the JSON schema of its arguments.
//
// The schema is treated as immutable once created,
// and is serialized to the wire format only when sent to the model.
type FunctionSchema struct {
	Name        string             `json:"name" yaml:"name" validate:"required,max=64"`
	Description string             `json:"description" yaml:"description" validate:"required"`
	Parameters  *jsonschema.Schema `json:"parameters" yaml:"parameters" validate:"required"`
}

// NewFunctionSchema returns the validated function schema,
// with parameters reflected from the request type.
// The parameters are a copy of the cached schema of the type,
// the caller may modify them.
func NewFunctionSchema(name, description string, request reflect.Type) (*FunctionSchema, error) {
	s, err := New(request)
	if err != nil {
		return nil, err
	}
	params, err := Clone(s.Parameters)
	if err != nil {
		return nil, err
	}
	fs := &FunctionSchema{
		Name:        name,
		Description: description,
		Parameters:  params,
	}
	if err = fs.Validate(); err != nil {
		return nil, err
	}
	return fs, nil
}

// MustFunctionSchema is the same as NewFunctionSchema, but panics on error.
func MustFunctionSchema(name, description string, request reflect.Type) *FunctionSchema {
	fs, err := NewFunctionSchema(name, description, request)
	if err != nil {
		panic(err)
	}
	return fs
}

// Validate returns an error if the schema is not a valid function declaration:
// the parameters must be an `object`,
// and every `required` parameter must be defined in `properties`.
func (f *FunctionSchema) Validate() error {
	if f == nil {
		return errors.New("function schema is nil")
	}
	if err := validate.Struct(f); err != nil {
		return errors.WithMessagef(err, "invalid function schema %q", f.Name)
	}
	if f.Parameters.Type != "object" {
		return errors.Newf("function %q: parameters must be of type object, got %q", f.Name, f.Parameters.Type)
	}
	for _, req := range f.Parameters.Required {
		if f.Parameters.Properties == nil {
			return errors.Newf("function %q: required parameter %q is not defined", f.Name, req)
		}
		if _, ok := f.Parameters.Properties.Get(req); !ok {
			return errors.Newf("function %q: required parameter %q is not defined", f.Name, req)
		}
	}
	return nil
}

// FunctionsConfig is the wire form of the function declarations,
// keyed by the function name.
type FunctionsConfig map[string]*FunctionSchema

// NewFunctionsConfig returns FunctionsConfig for the provided schemas
func NewFunctionsConfig(fns ...*FunctionSchema) FunctionsConfig {
	cfg := make(FunctionsConfig, len(fns))
	for _, fn := range fns {
		cfg[fn.Name] = fn
	}
	return cfg
}

package schema

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments validates the JSON arguments of a function call
// against the parameters schema.
func ValidateArguments(params *jsonschema.Schema, args []byte) error {
	if params == nil {
		return errors.New("parameters schema is nil")
	}
	if !json.Valid(args) {
		return errors.New("arguments are not valid JSON")
	}

	sjs, err := json.Marshal(params)
	if err != nil {
		return errors.WithStack(err)
	}

	loader, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(sjs))
	if err != nil {
		return errors.Wrap(err, "invalid parameters schema")
	}

	result, err := loader.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return errors.Wrap(err, "unable to validate arguments")
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Newf("invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}

package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaMismatch is wrapped by ValidateSchema when the body does not
// satisfy the schema.
var ErrSchemaMismatch = errors.New("schema validation failed")

// ValidateSchema checks the response body against a JSON schema document.
func ValidateSchema(resp *ajax.Response, schema []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(resp.ResponseText)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
}

package inspect

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
)

const (
	statusPath   = "status"
	headerPrefix = "header."
)

// Inspector reads values from a single response.
type Inspector struct {
	response *commenthttp.Response
	bodyJSON gjson.Result
}

func New(resp *commenthttp.Response) *Inspector {
	i := &Inspector{response: resp}
	if gjson.ValidBytes(resp.Body) {
		i.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return i
}

// Select returns the value at path and whether it exists.
func (i *Inspector) Select(path string) (any, bool) {
	switch {
	case path == statusPath:
		return i.response.StatusCode, true
	case strings.HasPrefix(path, headerPrefix):
		value := i.response.Header(strings.TrimPrefix(path, headerPrefix))
		if value == "" {
			return nil, false
		}
		return value, true
	default:
		return i.selectBody(path)
	}
}

func (i *Inspector) selectBody(path string) (any, bool) {
	if !i.bodyJSON.Exists() {
		if path == "" {
			return i.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return i.bodyJSON.Value(), true
	}

	result := i.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// SelectRaw returns the JSON text at path for printing. Strings are
// returned unquoted.
func (i *Inspector) SelectRaw(path string) (string, bool) {
	if path == statusPath || strings.HasPrefix(path, headerPrefix) {
		v, ok := i.Select(path)
		if !ok {
			return "", false
		}
		return fmt.Sprint(v), true
	}
	result := gjson.GetBytes(i.response.Body, path)
	if !result.Exists() {
		return "", false
	}
	if result.Type == gjson.String {
		return result.Str, true
	}
	return result.Raw, true
}

// Select is a shorthand for New(resp).Select(path).
func Select(resp *commenthttp.Response, path string) (any, bool) {
	return New(resp).Select(path)
}

// SchemaError lists every violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// ValidateSchema validates doc against schema. A document that does not
// match returns *SchemaError; a malformed schema or document returns a
// plain error.
func ValidateSchema(schema, doc []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Violations: violations}
}

// ValidateSchemaFile reads a schema from path and validates the response body.
func ValidateSchemaFile(path string, resp *commenthttp.Response) error {
	schema, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return ValidateSchema(schema, resp.Body)
}

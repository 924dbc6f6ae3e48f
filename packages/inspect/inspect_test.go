package inspect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
)

func threadResponse() *commenthttp.Response {
	return &commenthttp.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(`{"id":"t1","title":"Week 1","comments_count":2,"children":[{"id":"c1","body":"hi"},{"id":"c2","body":"yo"}]}`),
	}
}

func TestSelect_Body(t *testing.T) {
	i := New(threadResponse())

	v, ok := i.Select("title")
	require.True(t, ok)
	assert.Equal(t, "Week 1", v)

	v, ok = i.Select("comments_count")
	require.True(t, ok)
	assert.Equal(t, float64(2), v)

	v, ok = i.Select("children.#.id")
	require.True(t, ok)
	assert.Equal(t, []any{"c1", "c2"}, v)

	_, ok = i.Select("missing")
	assert.False(t, ok)
}

func TestSelect_StatusAndHeader(t *testing.T) {
	resp := threadResponse()

	v, ok := Select(resp, "status")
	require.True(t, ok)
	assert.Equal(t, 200, v)

	v, ok = Select(resp, "header.content-type")
	require.True(t, ok)
	assert.Equal(t, "application/json", v)

	_, ok = Select(resp, "header.X-Missing")
	assert.False(t, ok)
}

func TestSelect_NonJSONBody(t *testing.T) {
	resp := &commenthttp.Response{StatusCode: 200, Body: []byte("plain text")}

	v, ok := Select(resp, "")
	require.True(t, ok)
	assert.Equal(t, "plain text", v)

	_, ok = Select(resp, "id")
	assert.False(t, ok)
}

func TestSelectRaw(t *testing.T) {
	i := New(threadResponse())

	raw, ok := i.SelectRaw("children.0")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"c1","body":"hi"}`, raw)

	raw, ok = i.SelectRaw("title")
	require.True(t, ok)
	assert.Equal(t, "Week 1", raw)

	raw, ok = i.SelectRaw("status")
	require.True(t, ok)
	assert.Equal(t, "200", raw)
}

const threadSchema = `{
	"type": "object",
	"required": ["id", "title"],
	"properties": {
		"id": {"type": "string"},
		"comments_count": {"type": "integer"}
	}
}`

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema([]byte(threadSchema), threadResponse().Body))

	err := ValidateSchema([]byte(threadSchema), []byte(`{"id":1}`))
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Len(t, schemaErr.Violations, 2)
	assert.Contains(t, err.Error(), "title")
}

func TestValidateSchema_Malformed(t *testing.T) {
	err := ValidateSchema([]byte(threadSchema), []byte(`{not json`))
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
}

func TestValidateSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thread.json")
	require.NoError(t, os.WriteFile(path, []byte(threadSchema), 0o644))

	assert.NoError(t, ValidateSchemaFile(path, threadResponse()))
	assert.Error(t, ValidateSchemaFile(filepath.Join(t.TempDir(), "nope.json"), threadResponse()))
}

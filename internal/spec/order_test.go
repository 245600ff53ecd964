package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKeyOrder_JSON(t *testing.T) {
	t.Parallel()
	order, err := BuildKeyOrder([]byte(`{
  "paths": {
    "/pets/{id}": {"put": {}, "get": {}},
    "/a~b": {"get": {}}
  },
  "list": [{"z": 1, "y": 2}]
}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"paths", "list"}, order[""])
	assert.Equal(t, []string{"/pets/{id}", "/a~b"}, order["/paths"])
	assert.Equal(t, []string{"put", "get"}, order["/paths/~1pets~1{id}"])
	assert.Equal(t, []string{"get"}, order["/paths/~1a~0b"])
	assert.Equal(t, []string{"z", "y"}, order["/list/0"])
}

func TestBuildKeyOrder_DefinitionsAlias(t *testing.T) {
	t.Parallel()
	order, err := BuildKeyOrder([]byte(`definitions:
  Pet:
    properties:
      name: {}
      age: {}
  Owner: {}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet", "Owner"}, order["/components/schemas"])
	assert.Equal(t, []string{"name", "age"}, order["/components/schemas/Pet/properties"])
}

func TestBuildKeyOrder_Invalid(t *testing.T) {
	t.Parallel()
	_, err := BuildKeyOrder([]byte("a: [unclosed"))
	assert.Error(t, err)
}

func TestKeyOrder_Keys(t *testing.T) {
	t.Parallel()
	order := KeyOrder{"/x": {"c", "a", "gone"}}

	assert.Equal(t, []string{"c", "a", "b", "d"}, order.Keys("/x", []string{"d", "a", "b", "c"}))
	assert.Equal(t, []string{"a", "b"}, order.Keys("/unknown", []string{"b", "a"}))
	assert.Empty(t, order.Keys("/x", nil))
}

func TestPointerEscaping(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "~1a~0b~1c", escapePointer("/a~b/c"))
	assert.Equal(t, "/a~b/c", unescapePointer("~1a~0b~1c"))
	assert.Equal(t, "Pet", refName("#/components/schemas/Pet"))
	assert.Equal(t, "a/b", refName("#/components/schemas/a~1b"))
	assert.Equal(t, "/components/schemas/Pet", refPointer("#/components/schemas/Pet"))
}

package typegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyytojerry/lago-sub001/internal/spec"
)

func enumOf(values ...any) *spec.Enum { return &spec.Enum{Values: values} }

func objectWith(props ...spec.Property) *spec.Object { return &spec.Object{Properties: props} }

func TestBuildEnumTable_DedupFirstDeclarationWins(t *testing.T) {
	t.Parallel()

	schemas := []spec.NamedSchema{
		{Name: "Order", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("pending", "active", "sold")})},
		{Name: "Product", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("pending", "active", "sold")})},
	}
	table := BuildEnumTable(schemas)

	require.Equal(t, 1, table.Len())
	name, ok := table.Lookup(enumOf("pending", "active", "sold"))
	require.True(t, ok)
	assert.Equal(t, "OrderStatus", name)
	assert.Equal(t, "Order", table.Entries()[0].Owner)
}

func TestBuildEnumTable_ReorderedValuesAreDistinct(t *testing.T) {
	t.Parallel()

	schemas := []spec.NamedSchema{
		{Name: "Product", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("a", "b")})},
		{Name: "Order", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("b", "a")})},
	}
	table := BuildEnumTable(schemas)

	require.Equal(t, 2, table.Len())
	first, _ := table.Lookup(enumOf("a", "b"))
	second, _ := table.Lookup(enumOf("b", "a"))
	assert.Equal(t, "ProductStatus", first)
	assert.Equal(t, "OrderStatus", second)
}

func TestBuildEnumTable_OnlyDirectPropertiesOfNamedSchemas(t *testing.T) {
	t.Parallel()

	nested := objectWith(spec.Property{Name: "inner", Schema: objectWith(spec.Property{Name: "kind", Schema: enumOf("x")})})
	table := BuildEnumTable([]spec.NamedSchema{
		{Name: "Wrapper", Schema: nested},
		{Name: "Level", Schema: enumOf("low", "high")},
	})
	assert.Equal(t, 0, table.Len())
}

func TestBuildEnumTable_NameCollisionGetsSuffix(t *testing.T) {
	t.Parallel()

	table := BuildEnumTable([]spec.NamedSchema{
		{Name: "Product", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("on", "off")})},
		{Name: "ProductStatus", Schema: &spec.Primitive{Type: "string"}},
	})
	name, ok := table.Lookup(enumOf("on", "off"))
	require.True(t, ok)
	assert.Equal(t, "ProductStatus2", name)
}

func TestSignature(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a","b"`, Signature(enumOf("a", "b")))
	assert.Equal(t, `1,2.5,true,null`, Signature(enumOf(float64(1), 2.5, true, nil)))
	assert.NotEqual(t, Signature(enumOf("1")), Signature(enumOf(float64(1))))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	table := BuildEnumTable([]spec.NamedSchema{
		{Name: "Product", Schema: objectWith(spec.Property{Name: "status", Schema: enumOf("pending", "active")})},
	})
	r := Resolver{Enums: table, Qualifier: "Types."}

	tests := []struct {
		name   string
		schema spec.Schema
		want   string
	}{
		{"nil", nil, "any"},
		{"ref", &spec.Ref{Name: "Product"}, "Types.Product"},
		{"string", &spec.Primitive{Type: "string"}, "string"},
		{"binary", &spec.Primitive{Type: "string", Format: "binary"}, "Blob"},
		{"integer", &spec.Primitive{Type: "integer"}, "number"},
		{"boolean", &spec.Primitive{Type: "boolean"}, "boolean"},
		{"object primitive", &spec.Primitive{Type: "object"}, "Record<string, any>"},
		{"unknown", &spec.Primitive{Type: "composite"}, "any"},
		{"array of ref", &spec.Array{Items: &spec.Ref{Name: "Product"}}, "Types.Product[]"},
		{"array of array", &spec.Array{Items: &spec.Array{Items: &spec.Primitive{Type: "number"}}}, "number[][]"},
		{"unified enum", enumOf("pending", "active"), "Types.ProductStatus"},
		{"inline enum", enumOf("x", float64(2)), `"x" | 2`},
		{"array of inline enum", &spec.Array{Items: enumOf("x", "y")}, `("x" | "y")[]`},
		{"empty object", &spec.Object{}, "Record<string, any>"},
		{
			"inline object",
			&spec.Object{
				Properties: []spec.Property{
					{Name: "id", Schema: &spec.Primitive{Type: "integer"}},
					{Name: "display-name", Schema: &spec.Primitive{Type: "string"}},
				},
				Required: map[string]bool{"id": true},
			},
			`{ id: number; "display-name"?: string }`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.Resolve(tt.schema))
		})
	}
}

func TestResolve_SharedModuleHasNoQualifier(t *testing.T) {
	t.Parallel()

	r := Resolver{}
	assert.Equal(t, "Product[]", r.Resolve(&spec.Array{Items: &spec.Ref{Name: "Product"}}))
	assert.Equal(t, `"a"`, r.Resolve(enumOf("a")))
}

func TestPropertyKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "id", PropertyKey("id"))
	assert.Equal(t, "$meta", PropertyKey("$meta"))
	assert.Equal(t, `"x-total"`, PropertyKey("x-total"))
	assert.Equal(t, `"2fa"`, PropertyKey("2fa"))
	assert.Equal(t, `""`, PropertyKey(""))
}

func TestDocComment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", DocComment("  ", ""))
	assert.Equal(t, "  /** Unit price */\n", DocComment("Unit price", "  "))
	assert.Equal(t, "/**\n * first\n *\n * second\n */\n", DocComment("first\n\nsecond", ""))
}

func TestTypeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Product", TypeName("Product"))
	assert.Equal(t, "dto_Product", TypeName("dto.Product"))
	assert.Equal(t, "_1Item", TypeName("1Item"))
	assert.Equal(t, "_", TypeName(""))
}

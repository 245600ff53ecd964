package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyytojerry/lago-sub001/internal/spec"
)

func TestBaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		method spec.HttpMethod
		want   string
	}{
		{"list keeps plural", "/api/products", spec.GET, "products"},
		{"detail drops param", "/api/products/{id}", spec.GET, "products"},
		{"create singularizes", "/api/products", spec.POST, "product"},
		{"action on item", "/api/products/{id}/like", spec.POST, "productLike"},
		{"nested plural kept for GET", "/api/users/{id}/orders", spec.GET, "userOrders"},
		{"nested plural dropped for PUT", "/api/users/{id}/addresses", spec.PUT, "userAddress"},
		{"ies plural", "/api/categories", spec.DELETE, "category"},
		{"kebab segment", "/api/order-items/{id}", spec.PATCH, "orderItem"},
		{"no root marker", "/health", spec.GET, "health"},
		{"root only", "/api", spec.GET, "root"},
		{"status is not plural", "/api/orders/{id}/status", spec.PUT, "orderStatus"},
		{"reserved word", "/api/delete", spec.GET, "delete_"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BaseName(tt.path, tt.method, DefaultRootMarker))
		})
	}
}

func TestPool_CollisionAppendsMethodSuffix(t *testing.T) {
	t.Parallel()

	p := NewPool("")
	assert.Equal(t, "products", p.Allocate("/api/products", spec.GET))
	assert.Equal(t, "productsDetail", p.Allocate("/api/products/{id}", spec.GET))
	assert.Equal(t, "product", p.Allocate("/api/products", spec.POST))
	assert.Equal(t, "productCreate", p.Allocate("/api/products/", spec.POST))
	assert.Equal(t, "productUpdate", p.Allocate("/api/products/{id}", spec.PUT))
	assert.Equal(t, "productDelete", p.Allocate("/api/products/{id}", spec.DELETE))
}

func TestPool_RepeatedCollisionStaysUnique(t *testing.T) {
	t.Parallel()

	p := NewPool("api")
	got := []string{
		p.Allocate("/api/products", spec.GET),
		p.Allocate("/api/products/{id}", spec.GET),
		p.Allocate("/api/products/{id}/{variant}", spec.GET),
	}
	assert.Equal(t, []string{"products", "productsDetail", "productsDetail2"}, got)
	assert.True(t, p.Has("productsDetail2"))
	assert.False(t, p.Has("productsDetail3"))
}

func TestPool_LikeUnlikeSiblings(t *testing.T) {
	t.Parallel()

	p := NewPool("api")
	assert.Equal(t, "productLike", p.Allocate("/api/products/{id}/like", spec.POST))
	assert.Equal(t, "productUnlike", p.Allocate("/api/products/{id}/unlike", spec.POST))
	// A second operation on the same route collides and takes the POST suffix.
	assert.Equal(t, "productLikeCreate", p.Allocate("/api/products/{id}/like", spec.POST))
}

func TestPools_AreIndependent(t *testing.T) {
	t.Parallel()

	types := NewPool("api")
	funcs := NewPool("api")
	require.Equal(t, "products", types.Allocate("/api/products", spec.GET))
	assert.Equal(t, "products", funcs.Allocate("/api/products", spec.GET))
	assert.False(t, funcs.Has("productsDetail"))
}

func TestReserve(t *testing.T) {
	t.Parallel()

	p := NewPool("api")
	assert.Equal(t, "ProductDTO", p.Reserve("ProductDTO"))
	assert.Equal(t, "ProductDTO2", p.Reserve("ProductDTO"))
	assert.Equal(t, "ProductDTO3", p.Reserve("ProductDTO"))
}

func TestSingularize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"products":   "product",
		"categories": "category",
		"boxes":      "box",
		"matches":    "match",
		"addresses":  "address",
		"status":     "status",
		"address":    "address",
		"analysis":   "analysis",
		"like":       "like",
	}
	for in, want := range cases {
		assert.Equal(t, want, Singularize(in), in)
	}
}

func TestPathTemplate(t *testing.T) {
	t.Parallel()

	literals, names := PathTemplate("/files/{name}.json")
	assert.Equal(t, []string{"/files/", ".json"}, literals)
	assert.Equal(t, []string{"name"}, names)

	literals, names = PathTemplate("/api/products")
	assert.Equal(t, []string{"/api/products"}, literals)
	assert.Empty(t, names)
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"id", "imageId"}, PathParamNames("/api/products/{id}/images/{imageId}"))
	assert.Equal(t, []string{"products", "like"}, Segments("/api/products/{id}/like", "api"))
	assert.Equal(t, []string{"files", "json"}, Segments("/api/files/{name}.json", "api"))
	assert.Equal(t, []string{"name", "ext"}, PathParamNames("/files/{name}.{ext}"))
	assert.Equal(t, "fileJson", BaseName("/api/files/{name}.json", spec.GET, "api"))
	assert.Equal(t, "adminUsers", Ident("Admin Users"))
	assert.Equal(t, "adminUsers", Ident("AdminUsers"))
	assert.Equal(t, []string{"product", "like"}, Words("productLike"))
	assert.Equal(t, "ProductLike", Capitalize("productLike"))
	assert.Equal(t, "Trace", MethodSuffix(spec.TRACE))
}

package spec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600))
	return path
}

func requireSpecError(t *testing.T, err error, codes ...ErrorCode) *SpecError {
	t.Helper()
	require.Error(t, err)
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, codes, se.Code, "unexpected code for %v", err)
	return se
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	requireSpecError(t, err, InputError)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "openapi.json"))
	requireSpecError(t, err, InputError)
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	requireSpecError(t, err, InputError)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	requireSpecError(t, err, InputError)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/spec.yaml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	requireSpecError(t, err, NetworkError)
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "doc.yaml", `info: { title: x, version: "1" }`)
	_, err := Load(context.Background(), path)
	requireSpecError(t, err, ParseError)
}

func TestLoad_V3_InvalidSpec(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)
	_, err := Load(context.Background(), path)
	// parser versions differ in where they reject this
	se := requireSpecError(t, err, ValidationError, ParseError)
	assert.NotEmpty(t, se.Location)
}

func TestLoad_V3_KeepsKeyOrder(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "openapi.yaml", `openapi: 3.0.3
info: { title: Shop, version: "1.0.0" }
paths:
  /zoo:
    get:
      responses: { '200': { description: ok } }
  /apple:
    get:
      responses: { '200': { description: ok } }
components:
  schemas:
    Zebra: { type: string }
    Aardvark: { type: integer }
`)
	src, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, src.Converted)
	assert.Equal(t, path, src.Location)
	assert.Equal(t, []string{"/zoo", "/apple"}, src.Order["/paths"])
	assert.Equal(t, []string{"Zebra", "Aardvark"}, src.Order["/components/schemas"])
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      responses:
        "200":
          description: ok
`)
	src, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, src.Doc)
	assert.True(t, src.Converted)
	assert.True(t, strings.HasPrefix(src.Doc.OpenAPI, "3."), "got %q", src.Doc.OpenAPI)
}

func TestLoad_V2_Conversion_Failure(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "swagger-bad.yaml", `swagger: "2.0"
paths: {}
`)
	_, err := Load(context.Background(), path)
	requireSpecError(t, err, ConversionError, ValidationError, ParseError)
}

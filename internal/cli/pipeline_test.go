package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketplaceSpecYAML = `openapi: 3.0.0
info:
  title: Marketplace API
  version: '1.0.0'
paths:
  /api/products:
    get:
      summary: List products
      tags: [Products, App]
      parameters:
        - name: status
          in: query
          schema:
            type: string
            enum: [pending, active, sold]
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Product'
  /api/products/{id}/like:
    post:
      tags: [Products, App]
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
      responses:
        '204':
          description: liked
  /api/admin/users:
    get:
      summary: List users
      tags: [AdminUsers]
      responses:
        '200':
          description: ok
components:
  schemas:
    Product:
      type: object
      required: [id]
      properties:
        id:
          type: integer
        status:
          type: string
          enum: [pending, active, sold]
`

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(p, []byte(marketplaceSpecYAML), 0o600))
	return p
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "generated")

	var stdout bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "app", "--input", specPath, "--out", outDir, "--dry-run"})
	require.NoError(t, root.Execute())

	out := stdout.String()
	assert.Contains(t, out, "Planned writes to")
	assert.Contains(t, out, "(3 files)")
	for _, rel := range []string{"index.ts", "products.ts", "types.ts"} {
		assert.Contains(t, out, "- "+rel+"\n")
	}
	assert.NoDirExists(t, outDir, "dry-run must not create the output directory")
}

func TestGeneratePipeline_WritesProjectModules(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "generated")

	var stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--verbose", "generate", "app", "--input", specPath, "--out", outDir})
	require.NoError(t, root.Execute())

	types, err := os.ReadFile(filepath.Join(outDir, "types.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(types), `export type ProductStatus = "pending" | "active" | "sold";`)

	products, err := os.ReadFile(filepath.Join(outDir, "products.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(products), "status?: Types.ProductStatus;")
	assert.Contains(t, string(products), "export function productLike(path: ProductLikePathParams)")
	assert.NoFileExists(t, filepath.Join(outDir, "adminusers.ts"))

	assert.Contains(t, stderr.String(), "apigen: app: wrote products.ts")
}

func TestGeneratePipeline_AllProjectsFromConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	appOut := filepath.Join(dir, "app")
	opOut := filepath.Join(dir, "operation")
	config := fmt.Sprintf("input: %q\nprojects:\n  app:\n    out: %q\n  operation:\n    out: %q\n", specPath, appOut, opOut)
	configPath := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "generate", "--all"})
	require.NoError(t, root.Execute())

	assert.FileExists(t, filepath.Join(appOut, "products.ts"))
	assert.NoFileExists(t, filepath.Join(appOut, "adminusers.ts"))
	assert.FileExists(t, filepath.Join(opOut, "adminusers.ts"))
	assert.NoFileExists(t, filepath.Join(opOut, "products.ts"))

	index, err := os.ReadFile(filepath.Join(opOut, "index.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "export * as adminUsers from './adminusers';")
}

func TestProjectsCommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("projects:\n  kiosk:\n    tags: Products, Cart\n"), 0o600))

	var stdout bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "projects"})
	require.NoError(t, root.Execute())

	out := stdout.String()
	assert.Contains(t, out, "app\n  out:  apps/app/src/api/generated\n")
	assert.Contains(t, out, "kiosk\n  out:  apps/kiosk/src/api/generated\n  tags: Products, Cart\n")
	assert.Contains(t, out, "operation\n")
}

package tsemitter

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dyytojerry/lago-sub001/internal/naming"
	"github.com/dyytojerry/lago-sub001/internal/partition"
	"github.com/dyytojerry/lago-sub001/internal/spec"
	"github.com/dyytojerry/lago-sub001/internal/typegen"
)

const (
	typesModule = "types"
	indexModule = "index"
	// typesNS is the namespace tag modules import the shared module under.
	typesNS = "Types"
)

// Unit is one emitted module.
type Unit struct {
	File string
	// Tag is the first tag of the group; empty for types.ts and index.ts.
	Tag       string
	Imports   []string
	Types     []string
	Functions []string
	Wrappers  []string
	Exports   []string
}

// Bytes renders the unit as a source file.
func (u Unit) Bytes() []byte {
	var b strings.Builder
	b.WriteString(Header + "\n")
	if len(u.Imports) > 0 {
		b.WriteString("\n")
		for _, imp := range u.Imports {
			b.WriteString(imp + "\n")
		}
	}
	empty := true
	for _, block := range [][]string{u.Types, u.Functions, u.Wrappers} {
		for _, decl := range block {
			b.WriteString("\n" + decl)
			empty = false
		}
	}
	if len(u.Exports) > 0 {
		b.WriteString("\n")
		for _, e := range u.Exports {
			b.WriteString(e + "\n")
		}
		empty = false
	}
	if empty {
		b.WriteString("\nexport {};\n")
	}
	return []byte(b.String())
}

// lowerCase builds its Caser per call; a Caser must not be shared between
// the goroutines rendering projects.
func lowerCase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// RenderUnits partitions the document for opts.Project and renders every
// module of that project.
func RenderUnits(doc *spec.Document, opts Options) ([]Unit, error) {
	if doc == nil {
		return nil, fmt.Errorf("tsemitter: nil document")
	}
	if strings.TrimSpace(opts.Project) == "" {
		return nil, fmt.Errorf("tsemitter: Project is required")
	}
	opts = opts.withDefaults()
	ops, err := partition.Partition(doc.Operations, opts.Project, opts.Table)
	if err != nil {
		return nil, err
	}
	enums := opts.Enums
	if enums == nil {
		enums = typegen.BuildEnumTable(doc.Schemas)
	}

	units := []Unit{renderTypesModule(doc, enums)}

	stems := naming.NewPool(opts.RootMarker)
	stems.Reserve(typesModule)
	stems.Reserve(indexModule)
	idents := naming.NewPool(opts.RootMarker)
	exports := []string{fmt.Sprintf("export * from './%s';", typesModule)}
	for _, g := range partition.GroupByTag(ops) {
		stem := stems.Reserve(ModuleStem(g.Tag))
		units = append(units, renderTagModule(g, stem+".ts", enums, opts))
		exports = append(exports, fmt.Sprintf("export * as %s from './%s';", idents.Reserve(naming.Ident(g.Tag)), stem))
	}
	units = append(units, Unit{File: indexModule + ".ts", Exports: exports})
	return units, nil
}

// ModuleStem is the file name of a tag module without extension: the tag
// lower-cased, with runs of other characters turned into "-".
func ModuleStem(tag string) string {
	fields := strings.FieldsFunc(lowerCase(tag), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(fields) == 0 {
		return "default"
	}
	return strings.Join(fields, "-")
}

// HumanizedSummary is the second element of a query key.
func HumanizedSummary(op spec.Operation, fnName string) string {
	if s := strings.Join(strings.Fields(op.Summary), " "); s != "" {
		return lowerCase(s)
	}
	return strings.Join(naming.Words(fnName), " ")
}

func renderTypesModule(doc *spec.Document, enums *typegen.EnumTable) Unit {
	r := typegen.Resolver{Enums: enums}
	u := Unit{File: typesModule + ".ts"}
	for _, e := range enums.Entries() {
		u.Types = append(u.Types, fmt.Sprintf("export type %s = %s;\n", e.Name, typegen.Union(e.Values)))
	}
	for _, ns := range doc.Schemas {
		name := typegen.TypeName(ns.Name)
		if obj, ok := spec.InlineObject(ns.Schema); ok {
			var b strings.Builder
			b.WriteString(typegen.DocComment(obj.Description, ""))
			fmt.Fprintf(&b, "export interface %s {\n", name)
			for _, p := range obj.Properties {
				b.WriteString(typegen.DocComment(p.Description, "  "))
				fmt.Fprintf(&b, "  %s%s: %s;\n", typegen.PropertyKey(p.Name), typegen.Optional(obj.IsRequired(p.Name)), r.Resolve(p.Schema))
			}
			b.WriteString("}\n")
			u.Types = append(u.Types, b.String())
			continue
		}
		var desc string
		if obj, ok := ns.Schema.(*spec.Object); ok {
			desc = obj.Description
		}
		u.Types = append(u.Types, typegen.DocComment(desc, "")+fmt.Sprintf("export type %s = %s;\n", name, r.Resolve(ns.Schema)))
	}
	return u
}

// opNames holds every identifier allocated for one operation.
type opNames struct {
	pathParams  string
	queryParams string
	dto         string
	response    string
	fn          string
	wrapper     string
}

// Names the module itself declares or imports; allocations never take them.
var (
	functionScope = []string{"request", "path", "query", "body", "vars", "queryClient", typesNS}
	wrapperScope  = []string{"query", "mutation", "queryClient"}
)

func renderTagModule(g partition.TagGroup, file string, enums *typegen.EnumTable, opts Options) Unit {
	u := Unit{File: file, Tag: g.Tag}
	names := make([]opNames, len(g.Operations))

	// Type pass.
	typePool := naming.NewPool(opts.RootMarker)
	for i, op := range g.Operations {
		base := naming.Capitalize(typePool.Allocate(op.Path, op.Method))
		if hasPathParams(op) {
			names[i].pathParams = typePool.Reserve(base + "PathParams")
		}
		if len(op.QueryParams()) > 0 {
			names[i].queryParams = typePool.Reserve(base + "QueryParams")
		}
		if hasBody(op) {
			names[i].dto = typePool.Reserve(base + "DTO")
		}
		names[i].response = typePool.Reserve(base + "Response")
	}

	// Function pass.
	fnPool := naming.NewPool(opts.RootMarker)
	for _, n := range functionScope {
		fnPool.Reserve(n)
	}
	for i, op := range g.Operations {
		names[i].fn = fnPool.Allocate(op.Path, op.Method)
	}

	// Wrapper pass.
	wrapPool := naming.NewPool(opts.RootMarker)
	for _, n := range wrapperScope {
		wrapPool.Reserve(n)
	}
	for i, op := range g.Operations {
		names[i].wrapper = "use" + naming.Capitalize(wrapPool.Allocate(op.Path, op.Method))
	}

	tc := &typeCtx{pool: typePool, r: typegen.Resolver{Enums: enums, Qualifier: typesNS + "."}}
	tagKey := lowerCase(g.Tag)
	var usesQuery, usesMutation bool
	for i, op := range g.Operations {
		tc.declareOperation(op, names[i])
		sig := newSignature(op, names[i])
		u.Functions = append(u.Functions, renderFunction(op, names[i], sig))
		if op.Method == spec.GET {
			usesQuery = true
			u.Wrappers = append(u.Wrappers, renderQueryWrapper(op, names[i], sig, tagKey))
		} else {
			usesMutation = true
			u.Wrappers = append(u.Wrappers, renderMutationWrapper(names[i], sig, tagKey, opts.UmbrellaScope))
		}
	}
	u.Types = tc.decls

	u.Imports = append(u.Imports, fmt.Sprintf("import { request } from %s;", tsString(opts.RequestModule)))
	var hooks []string
	if usesMutation {
		hooks = append(hooks, "useMutation")
	}
	if usesQuery {
		hooks = append(hooks, "useQuery")
	}
	if usesMutation {
		hooks = append(hooks, "useQueryClient")
	}
	u.Imports = append(u.Imports, fmt.Sprintf("import { %s } from %s;", strings.Join(hooks, ", "), tsString(opts.QueryModule)))
	if usesTypes(u) {
		u.Imports = append(u.Imports, fmt.Sprintf("import type * as %s from './%s';", typesNS, typesModule))
	}
	return u
}

func usesTypes(u Unit) bool {
	for _, block := range [][]string{u.Types, u.Functions} {
		for _, decl := range block {
			if strings.Contains(decl, typesNS+".") {
				return true
			}
		}
	}
	return false
}

func hasPathParams(op spec.Operation) bool {
	return len(op.PathParams()) > 0 || len(naming.PathParamNames(op.Path)) > 0
}

// hasBody reports whether the generated function sends a request body.
func hasBody(op spec.Operation) bool {
	return op.HasBody && op.Method.Mutating()
}

// field is one member of a generated interface.
type field struct {
	Name        string
	Description string
	Required    bool
	Schema      spec.Schema
}

type nestedDecl struct {
	name string
	obj  *spec.Object
}

// typeCtx renders the type declarations of one tag module. Nested DTO names
// are reserved in the pool of the type pass.
type typeCtx struct {
	pool  *naming.Pool
	r     typegen.Resolver
	decls []string
}

func (c *typeCtx) declareOperation(op spec.Operation, n opNames) {
	if n.pathParams != "" {
		var fields []field
		declared := map[string]bool{}
		for _, p := range op.PathParams() {
			declared[p.Name] = true
			fields = append(fields, field{Name: p.Name, Description: p.Description, Required: true, Schema: p.Schema})
		}
		for _, name := range naming.PathParamNames(op.Path) {
			if !declared[name] {
				declared[name] = true
				fields = append(fields, field{Name: name, Required: true, Schema: &spec.Primitive{Type: "string"}})
			}
		}
		c.declareInterface(n.pathParams, "", fields)
	}
	if n.queryParams != "" {
		var fields []field
		for _, p := range op.QueryParams() {
			fields = append(fields, field{Name: p.Name, Description: p.Description, Required: p.Required, Schema: p.Schema})
		}
		c.declareInterface(n.queryParams, "", fields)
	}
	if n.dto != "" {
		c.declareAlias(n.dto, op.RequestBody)
	}
	c.declareAlias(n.response, op.Response)
}

// declareAlias declares name as an interface when s is an inline object
// and as a type alias otherwise.
func (c *typeCtx) declareAlias(name string, s spec.Schema) {
	if obj, ok := spec.InlineObject(s); ok {
		c.declareObject(name, obj)
		return
	}
	var nested []nestedDecl
	c.decls = append(c.decls, fmt.Sprintf("export type %s = %s;\n", name, c.fieldType(name, "item", s, &nested)))
	for _, d := range nested {
		c.declareObject(d.name, d.obj)
	}
}

func (c *typeCtx) declareObject(name string, obj *spec.Object) {
	fields := make([]field, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		fields = append(fields, field{Name: p.Name, Description: p.Description, Required: obj.IsRequired(p.Name), Schema: p.Schema})
	}
	c.declareInterface(name, obj.Description, fields)
}

func (c *typeCtx) declareInterface(name, description string, fields []field) {
	var nested []nestedDecl
	var b strings.Builder
	b.WriteString(typegen.DocComment(description, ""))
	fmt.Fprintf(&b, "export interface %s {\n", name)
	for _, f := range fields {
		b.WriteString(typegen.DocComment(f.Description, "  "))
		fmt.Fprintf(&b, "  %s%s: %s;\n", typegen.PropertyKey(f.Name), typegen.Optional(f.Required), c.fieldType(name, f.Name, f.Schema, &nested))
	}
	b.WriteString("}\n")
	c.decls = append(c.decls, b.String())
	for _, d := range nested {
		c.declareObject(d.name, d.obj)
	}
}

// fieldType resolves s, giving inline objects (also inside arrays) a named
// DTO derived from the parent type and property.
func (c *typeCtx) fieldType(parent, prop string, s spec.Schema, nested *[]nestedDecl) string {
	if obj, ok := spec.InlineObject(s); ok {
		name := c.pool.Reserve(strings.TrimSuffix(parent, "DTO") + naming.Capitalize(naming.Ident(prop)) + "DTO")
		*nested = append(*nested, nestedDecl{name: name, obj: obj})
		return name
	}
	if arr, ok := s.(*spec.Array); ok && holdsInlineObject(arr) {
		return c.fieldType(parent, prop, arr.Items, nested) + "[]"
	}
	return c.r.Resolve(s)
}

func holdsInlineObject(arr *spec.Array) bool {
	for s := arr.Items; s != nil; {
		switch n := s.(type) {
		case *spec.Array:
			s = n.Items
		case *spec.Object:
			return len(n.Properties) > 0
		default:
			return false
		}
	}
	return false
}

// signature describes the parameters of a generated request function.
type signature struct {
	params []sigParam
}

type sigParam struct {
	name     string
	typ      string
	optional bool // may be omitted by the caller
	// trailing is false when a required parameter follows an optional one;
	// such a parameter is written as "name: T | undefined".
	trailing bool
}

func newSignature(op spec.Operation, n opNames) signature {
	var s signature
	if n.pathParams != "" {
		s.params = append(s.params, sigParam{name: "path", typ: n.pathParams})
	}
	if n.queryParams != "" {
		required := false
		for _, p := range op.QueryParams() {
			required = required || p.Required
		}
		s.params = append(s.params, sigParam{name: "query", typ: n.queryParams, optional: !required})
	}
	if n.dto != "" {
		s.params = append(s.params, sigParam{name: "body", typ: n.dto, optional: !op.BodyRequired})
	}
	trailing := true
	for i := len(s.params) - 1; i >= 0; i-- {
		if !s.params[i].optional {
			trailing = false
		}
		s.params[i].trailing = trailing
	}
	return s
}

func (s signature) has(name string) (sigParam, bool) {
	for _, p := range s.params {
		if p.name == name {
			return p, true
		}
	}
	return sigParam{}, false
}

// declaration renders the parameter list of the function.
func (s signature) declaration() string {
	parts := make([]string, 0, len(s.params))
	for _, p := range s.params {
		switch {
		case p.optional && p.trailing:
			parts = append(parts, p.name+"?: "+p.typ)
		case p.optional:
			parts = append(parts, p.name+": "+p.typ+" | undefined")
		default:
			parts = append(parts, p.name+": "+p.typ)
		}
	}
	return strings.Join(parts, ", ")
}

func (s signature) args(prefix string) string {
	parts := make([]string, 0, len(s.params))
	for _, p := range s.params {
		parts = append(parts, prefix+p.name)
	}
	return strings.Join(parts, ", ")
}

func renderFunction(op spec.Operation, n opNames, sig signature) string {
	var b strings.Builder
	doc := op.ID()
	if op.Summary != "" {
		doc = op.Summary + "\n\n" + doc
	}
	b.WriteString(typegen.DocComment(doc, ""))
	fmt.Fprintf(&b, "export function %s(%s): Promise<%s> {\n", n.fn, sig.declaration(), n.response)
	fmt.Fprintf(&b, "  return request<%s>({\n", n.response)
	fmt.Fprintf(&b, "    url: %s,\n", urlTemplate(op.Path))
	fmt.Fprintf(&b, "    method: %s,\n", tsString(string(op.Method)))
	if _, ok := sig.has("query"); ok {
		b.WriteString("    params: query,\n")
	}
	if _, ok := sig.has("body"); ok {
		b.WriteString("    data: body,\n")
	}
	b.WriteString("  });\n}\n")
	return b.String()
}

func renderQueryWrapper(op spec.Operation, n opNames, sig signature, tagKey string) string {
	key := []string{tsString(tagKey), tsString(HumanizedSummary(op, n.fn))}
	if _, ok := sig.has("path"); ok {
		key = append(key, pathValues(op)...)
	}
	if p, ok := sig.has("query"); ok {
		access := "query."
		if p.optional {
			access = "query?."
		}
		for _, qp := range op.QueryParams() {
			key = append(key, member(access, qp.Name))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "export function %s(%s) {\n", n.wrapper, sig.declaration())
	b.WriteString("  return useQuery({\n")
	fmt.Fprintf(&b, "    queryKey: [%s],\n", strings.Join(key, ", "))
	fmt.Fprintf(&b, "    queryFn: () => %s(%s),\n", n.fn, sig.args(""))
	b.WriteString("  });\n}\n")
	return b.String()
}

// pathValues lists the path argument members in URL order. Declared path
// parameters missing from the template follow in declaration order.
func pathValues(op spec.Operation) []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range naming.PathParamNames(op.Path) {
		if !seen[name] {
			seen[name] = true
			out = append(out, member("path.", name))
		}
	}
	for _, p := range op.PathParams() {
		if !seen[p.Name] {
			seen[p.Name] = true
			out = append(out, member("path.", p.Name))
		}
	}
	return out
}

func renderMutationWrapper(n opNames, sig signature, tagKey, umbrella string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export function %s() {\n", n.wrapper)
	b.WriteString("  const queryClient = useQueryClient();\n")
	b.WriteString("  return useMutation({\n")
	if len(sig.params) == 0 {
		fmt.Fprintf(&b, "    mutationFn: () => %s(),\n", n.fn)
	} else {
		fields := make([]string, 0, len(sig.params))
		allOptional := true
		for _, p := range sig.params {
			fields = append(fields, p.name+typegen.Optional(!p.optional)+": "+p.typ)
			allOptional = allOptional && p.optional
		}
		vars := "vars: { " + strings.Join(fields, "; ") + " }"
		if allOptional {
			vars += " = {}"
		}
		fmt.Fprintf(&b, "    mutationFn: (%s) => %s(%s),\n", vars, n.fn, sig.args("vars."))
	}
	b.WriteString("    onSuccess: () => {\n")
	fmt.Fprintf(&b, "      queryClient.invalidateQueries({ queryKey: [%s] });\n", tsString(tagKey))
	if umbrella != tagKey {
		fmt.Fprintf(&b, "      queryClient.invalidateQueries({ queryKey: [%s] });\n", tsString(umbrella))
	}
	b.WriteString("    },\n")
	b.WriteString("  });\n}\n")
	return b.String()
}

// urlTemplate renders path as a template literal with every {param}
// substituted from the path argument, also inside a segment.
func urlTemplate(path string) string {
	literals, names := naming.PathTemplate(path)
	var b strings.Builder
	b.WriteByte('`')
	for i, lit := range literals {
		b.WriteString(templateEscaper.Replace(lit))
		if i < len(names) {
			fmt.Fprintf(&b, "${encodeURIComponent(String(%s))}", member("path.", names[i]))
		}
	}
	b.WriteByte('`')
	return b.String()
}

var templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$")

// member renders a property access; access ends with "." or "?.".
func member(access, name string) string {
	if key := typegen.PropertyKey(name); key != name {
		if strings.HasSuffix(access, "?.") {
			return access + "[" + key + "]"
		}
		return strings.TrimSuffix(access, ".") + "[" + key + "]"
	}
	return access + name
}

// tsString renders s as a single-quoted string literal.
func tsString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

var stringEscaper = strings.NewReplacer("\\", "\\\\", "'", "\\'", "\n", "\\n", "\r", "\\r")

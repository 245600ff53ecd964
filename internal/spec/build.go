package spec

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildDocument converts a loaded OpenAPI v3 document into the ordered
// Description Document. Schemas, paths, methods and properties follow the
// key order of the source; anything the order index cannot place is
// appended in sorted order so the result stays deterministic.
func BuildDocument(ctx context.Context, src *Source) (*Document, error) {
	if src == nil || src.Doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	b := &builder{order: src.Order}
	doc := src.Doc

	out := &Document{}
	if doc.Info != nil {
		out.Title = strings.TrimSpace(doc.Info.Title)
		out.Version = strings.TrimSpace(doc.Info.Version)
	}

	if doc.Components != nil && len(doc.Components.Schemas) > 0 {
		names := make([]string, 0, len(doc.Components.Schemas))
		for name := range doc.Components.Schemas {
			names = append(names, name)
		}
		for _, name := range b.order.Keys("/components/schemas", names) {
			ref := doc.Components.Schemas[name]
			if ref == nil {
				continue
			}
			// A top-level entry that is itself a $ref is an alias.
			node := b.schema(ref, "/components/schemas/"+escapePointer(name))
			out.Schemas = append(out.Schemas, NamedSchema{Name: name, Schema: node})
		}
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	for _, p := range b.order.Keys("/paths", paths) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		itemPtr := "/paths/" + escapePointer(p)
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, strings.ToLower(m))
		}
		for _, m := range b.order.Keys(itemPtr, methods) {
			method, ok := ParseMethod(m)
			op := ops[strings.ToUpper(m)]
			if !ok || op == nil {
				continue
			}
			out.Operations = append(out.Operations, b.operation(p, method, item, op, itemPtr))
		}
	}
	return out, nil
}

type builder struct {
	order KeyOrder
}

func (b *builder) operation(path string, method HttpMethod, item *openapi3.PathItem, op *openapi3.Operation, itemPtr string) Operation {
	opPtr := itemPtr + "/" + strings.ToLower(string(method))
	out := Operation{
		Path:    path,
		Method:  method,
		Summary: strings.TrimSpace(op.Summary),
	}
	for _, t := range op.Tags {
		if t = strings.TrimSpace(t); t != "" {
			out.Tags = append(out.Tags, t)
		}
	}

	// Path-level parameters first, replaced in place by operation-level
	// ones with the same location and name.
	var params []Parameter
	index := map[string]int{}
	add := func(refs openapi3.Parameters, base string) {
		for i, pref := range refs {
			pm, ok := b.parameter(pref, fmt.Sprintf("%s/parameters/%d", base, i))
			if !ok {
				continue
			}
			key := string(pm.In) + ":" + pm.Name
			if at, seen := index[key]; seen {
				params[at] = pm
				continue
			}
			index[key] = len(params)
			params = append(params, pm)
		}
	}
	add(item.Parameters, itemPtr)
	add(op.Parameters, opPtr)
	out.Parameters = params

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		base := opPtr + "/requestBody"
		if op.RequestBody.Ref != "" {
			base = refPointer(op.RequestBody.Ref)
		}
		out.HasBody = true
		out.BodyRequired = rb.Required
		if mime := pickMime(rb.Content); mime != "" {
			out.RequestBody = b.schema(rb.Content[mime].Schema, base+"/content/"+escapePointer(mime)+"/schema")
		}
	}

	if code := successStatus(op.Responses); code != "" {
		rref := op.Responses[code]
		base := opPtr + "/responses/" + escapePointer(code)
		if rref.Ref != "" {
			base = refPointer(rref.Ref)
		}
		if mime := pickMime(rref.Value.Content); mime != "" {
			out.Response = b.schema(rref.Value.Content[mime].Schema, base+"/content/"+escapePointer(mime)+"/schema")
		}
	}
	return out
}

func (b *builder) parameter(pref *openapi3.ParameterRef, ptr string) (Parameter, bool) {
	if pref == nil || pref.Value == nil {
		return Parameter{}, false
	}
	if pref.Ref != "" {
		ptr = refPointer(pref.Ref)
	}
	p := pref.Value
	in := ParamLocation(strings.ToLower(strings.TrimSpace(p.In)))
	if in != InPath && in != InQuery {
		return Parameter{}, false
	}
	return Parameter{
		Name:        strings.TrimSpace(p.Name),
		In:          in,
		Required:    p.Required || in == InPath,
		Description: strings.TrimSpace(p.Description),
		Schema:      b.schema(p.Schema, ptr+"/schema"),
	}, true
}

func (b *builder) schema(ref *openapi3.SchemaRef, ptr string) Schema {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &Ref{Name: refName(ref.Ref)}
	}
	v := ref.Value
	if v == nil {
		return nil
	}
	if len(v.Enum) > 0 {
		return &Enum{Values: append([]any(nil), v.Enum...)}
	}
	if len(v.AllOf) == 1 && len(v.Properties) == 0 {
		return b.schema(v.AllOf[0], ptr+"/allOf/0")
	}
	switch {
	case v.Type == "array" || (v.Type == "" && v.Items != nil):
		return &Array{Items: b.schema(v.Items, ptr+"/items")}
	case v.Type == "object" || (v.Type == "" && len(v.Properties) > 0):
		return b.object(v, ptr)
	case v.Type == "" && (len(v.AllOf)+len(v.AnyOf)+len(v.OneOf)) > 0:
		// Compositions have no single target type.
		return &Primitive{Type: "composite"}
	default:
		return &Primitive{Type: v.Type, Format: v.Format}
	}
}

func (b *builder) object(v *openapi3.Schema, ptr string) *Object {
	obj := &Object{Description: strings.TrimSpace(v.Description)}
	if len(v.Required) > 0 {
		obj.Required = make(map[string]bool, len(v.Required))
		for _, r := range v.Required {
			obj.Required[r] = true
		}
	}
	names := make([]string, 0, len(v.Properties))
	for name := range v.Properties {
		names = append(names, name)
	}
	base := ptr + "/properties"
	for _, name := range b.order.Keys(base, names) {
		pref := v.Properties[name]
		prop := Property{Name: name, Schema: b.schema(pref, base+"/"+escapePointer(name))}
		if pref != nil && pref.Ref == "" && pref.Value != nil {
			prop.Description = strings.TrimSpace(pref.Value.Description)
		}
		obj.Properties = append(obj.Properties, prop)
	}
	return obj
}

// pickMime prefers application/json, then any other JSON flavour, then
// multipart/form-data, then the first media type in sorted order.
func pickMime(content openapi3.Content) string {
	if len(content) == 0 {
		return ""
	}
	keys := make([]string, 0, len(content))
	for k, mt := range content {
		if mt != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "application/json" {
			return k
		}
	}
	for _, k := range keys {
		if strings.Contains(k, "json") {
			return k
		}
	}
	for _, k := range keys {
		if k == "multipart/form-data" {
			return k
		}
	}
	return keys[0]
}

// successStatus returns the lowest 2xx status declared, falling back to
// "default".
func successStatus(responses openapi3.Responses) string {
	codes := make([]string, 0, len(responses))
	for code, rref := range responses {
		if rref != nil && rref.Value != nil {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		if len(code) == 3 && code[0] == '2' {
			return code
		}
		if strings.EqualFold(code, "2XX") {
			return code
		}
	}
	for _, code := range codes {
		if code == "default" {
			return code
		}
	}
	return ""
}

func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return unescapePointer(ref)
}

// refPointer turns a local "#/..." reference into an order-index pointer.
// External references are not indexed and yield an unmatched pointer.
func refPointer(ref string) string {
	if strings.HasPrefix(ref, "#") {
		return strings.TrimPrefix(ref, "#")
	}
	return "external:" + ref
}

// ParseMethod maps a method name in any case to an HttpMethod.
func ParseMethod(s string) (HttpMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return GET, true
	case http.MethodPost:
		return POST, true
	case http.MethodPut:
		return PUT, true
	case http.MethodPatch:
		return PATCH, true
	case http.MethodDelete:
		return DELETE, true
	case http.MethodHead:
		return HEAD, true
	case http.MethodOptions:
		return OPTIONS, true
	case http.MethodTrace:
		return TRACE, true
	}
	return "", false
}

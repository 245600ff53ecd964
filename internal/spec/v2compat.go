package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// normalizeSwagger2 rewrites Swagger v2 operations that openapi2conv
// rejects. It works on the node tree so the key order of the document
// survives the rewrite:
//   - several body parameters are merged into one object body whose
//     properties are the original parameters;
//   - body parameters mixed with formData become formData parameters and
//     the operation consumes multipart/form-data.
//
// On error the original bytes are returned with changed=false.
func normalizeSwagger2(data []byte) ([]byte, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return data, false, err
	}
	if len(root.Content) == 0 {
		return data, false, nil
	}
	paths := mappingValue(root.Content[0], "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return data, false, nil
	}

	changed := false
	for i := 1; i < len(paths.Content); i += 2 {
		item := paths.Content[i]
		if item.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			switch strings.ToLower(item.Content[j].Value) {
			case "get", "post", "put", "delete", "patch", "options", "head":
			default:
				continue
			}
			if fixSwagger2Operation(item.Content[j+1]) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(&root)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func fixSwagger2Operation(op *yaml.Node) bool {
	if op.Kind != yaml.MappingNode {
		return false
	}
	params := mappingValue(op, "parameters")
	if params == nil || params.Kind != yaml.SequenceNode || len(params.Content) == 0 {
		return false
	}

	bodyCount := 0
	hasFormData := false
	for _, p := range params.Content {
		switch strings.ToLower(scalarValue(p, "in")) {
		case "body":
			bodyCount++
		case "formdata":
			hasFormData = true
		}
	}
	if bodyCount == 0 || (bodyCount == 1 && !hasFormData) {
		return false
	}

	if hasFormData {
		for i, p := range params.Content {
			if strings.EqualFold(scalarValue(p, "in"), "body") {
				params.Content[i] = formDataFromBody(p)
			}
		}
		consumes := mappingValue(op, "consumes")
		if consumes == nil || consumes.Kind != yaml.SequenceNode {
			consumes = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			setMappingValue(op, "consumes", consumes)
		}
		for _, c := range consumes.Content {
			if c.Value == "multipart/form-data" {
				return true
			}
		}
		consumes.Content = append(consumes.Content, scalarNode("multipart/form-data"))
		return true
	}

	props := newMapping()
	required := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	rest := make([]*yaml.Node, 0, len(params.Content))
	for _, p := range params.Content {
		if !strings.EqualFold(scalarValue(p, "in"), "body") {
			rest = append(rest, p)
			continue
		}
		name := scalarValue(p, "name")
		if name == "" {
			name = "field"
		}
		schema := schemaFromParam(p)
		if schema == nil {
			schema = newMapping("type", scalarNode("string"))
		}
		setMappingValue(props, name, schema)
		if scalarValue(p, "required") == "true" {
			required.Content = append(required.Content, scalarNode(name))
		}
	}
	bodySchema := newMapping("type", scalarNode("object"), "properties", props)
	if len(required.Content) > 0 {
		setMappingValue(bodySchema, "required", required)
	}
	merged := newMapping("in", scalarNode("body"), "name", scalarNode("body"), "schema", bodySchema)
	params.Content = append([]*yaml.Node{merged}, rest...)
	return true
}

// schemaFromParam returns the schema of a body parameter, synthesizing one
// from type/items/format when the parameter is written in formData style.
func schemaFromParam(p *yaml.Node) *yaml.Node {
	if s := mappingValue(p, "schema"); s != nil && s.Kind == yaml.MappingNode {
		return s
	}
	typ := scalarValue(p, "type")
	if typ == "" {
		return nil
	}
	out := newMapping("type", scalarNode(typ))
	if items := mappingValue(p, "items"); items != nil {
		setMappingValue(out, "items", items)
	}
	if f := scalarValue(p, "format"); f != "" {
		setMappingValue(out, "format", scalarNode(f))
	}
	return out
}

func formDataFromBody(p *yaml.Node) *yaml.Node {
	name := scalarValue(p, "name")
	if name == "" {
		name = "field"
	}
	out := newMapping("in", scalarNode("formData"), "name", scalarNode(name))
	if desc := scalarValue(p, "description"); desc != "" {
		setMappingValue(out, "description", scalarNode(desc))
	}
	if req := mappingValue(p, "required"); req != nil {
		setMappingValue(out, "required", req)
	}

	// A referenced object has no formData form; it degrades to string.
	var typ, format string
	var items *yaml.Node
	if s := mappingValue(p, "schema"); s != nil && s.Kind == yaml.MappingNode {
		typ = scalarValue(s, "type")
		format = scalarValue(s, "format")
		items = mappingValue(s, "items")
		if typ == "" && mappingValue(s, "$ref") != nil {
			typ = "string"
		}
	}
	if typ == "" {
		typ = scalarValue(p, "type")
		format = scalarValue(p, "format")
		items = mappingValue(p, "items")
	}
	if typ == "" {
		typ = "string"
	}
	setMappingValue(out, "type", scalarNode(typ))
	if items != nil {
		setMappingValue(out, "items", items)
	}
	if format != "" {
		setMappingValue(out, "format", scalarNode(format))
	}
	return out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func scalarValue(n *yaml.Node, key string) string {
	v := mappingValue(n, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

func setMappingValue(n *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			n.Content[i+1] = value
			return
		}
	}
	n.Content = append(n.Content, scalarNode(key), value)
}

// newMapping builds a mapping from alternating key (string) and value
// (*yaml.Node) arguments.
func newMapping(kv ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(kv); i += 2 {
		setMappingValue(m, kv[i].(string), kv[i+1].(*yaml.Node))
	}
	return m
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

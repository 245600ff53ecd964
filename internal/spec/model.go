package spec

// Description Document model consumed by the generator. Everything here is
// built once per run and never mutated afterwards.

type HttpMethod string

const (
	GET     HttpMethod = "GET"
	POST    HttpMethod = "POST"
	PUT     HttpMethod = "PUT"
	DELETE  HttpMethod = "DELETE"
	PATCH   HttpMethod = "PATCH"
	HEAD    HttpMethod = "HEAD"
	OPTIONS HttpMethod = "OPTIONS"
	TRACE   HttpMethod = "TRACE"
)

// Mutating reports whether the method carries a request body by convention.
func (m HttpMethod) Mutating() bool {
	switch m {
	case POST, PUT, PATCH, DELETE:
		return true
	}
	return false
}

// Document is the ordered, in-memory form of an API description.
type Document struct {
	Title      string
	Version    string
	Schemas    []NamedSchema
	Operations []Operation
}

// NamedSchema is an entry of components.schemas.
type NamedSchema struct {
	Name   string
	Schema Schema
}

// Schema lookup by name; nil when absent.
func (d *Document) Schema(name string) Schema {
	for _, ns := range d.Schemas {
		if ns.Name == name {
			return ns.Schema
		}
	}
	return nil
}

type ParamLocation string

const (
	InPath  ParamLocation = "path"
	InQuery ParamLocation = "query"
)

type Parameter struct {
	Name        string
	In          ParamLocation
	Required    bool
	Description string
	Schema      Schema
}

// Operation is one (path, method) entry.
type Operation struct {
	Path         string
	Method       HttpMethod
	Summary      string
	Tags         []string
	Parameters   []Parameter
	HasBody      bool
	BodyRequired bool
	RequestBody  Schema // nil when there is no body or no usable content schema
	Response     Schema // nil when no success content is declared
}

// ID returns "METHOD path".
func (o Operation) ID() string { return string(o.Method) + " " + o.Path }

// PathParams returns the path parameters in declaration order.
func (o Operation) PathParams() []Parameter { return o.params(InPath) }

// QueryParams returns the query parameters in declaration order.
func (o Operation) QueryParams() []Parameter { return o.params(InQuery) }

func (o Operation) params(in ParamLocation) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// Schema is a sealed sum type: *Primitive, *Array, *Ref, *Object or *Enum.
// A nil Schema means the document declares nothing for that position.
type Schema interface {
	schemaNode()
}

// Primitive holds a scalar type name as written in the document. Unknown
// names are kept verbatim so the resolver can degrade them.
type Primitive struct {
	Type   string
	Format string
}

type Array struct {
	Items Schema
}

// Ref points at a named schema by its bare name.
type Ref struct {
	Name string
}

type Property struct {
	Name        string
	Description string
	Schema      Schema
}

// Object keeps properties in document order.
type Object struct {
	Description string
	Properties  []Property
	Required    map[string]bool
}

// Enum keeps literal values in declaration order.
type Enum struct {
	Values []any
}

func (*Primitive) schemaNode() {}
func (*Array) schemaNode()     {}
func (*Ref) schemaNode()       {}
func (*Object) schemaNode()    {}
func (*Enum) schemaNode()      {}

// IsRequired reports whether the named property is required.
func (o *Object) IsRequired(name string) bool {
	return o != nil && o.Required[name]
}

// InlineObject reports whether s is an object literal with at least one property.
func InlineObject(s Schema) (*Object, bool) {
	obj, ok := s.(*Object)
	if !ok || obj == nil || len(obj.Properties) == 0 {
		return nil, false
	}
	return obj, true
}
